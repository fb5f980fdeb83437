// Package database provides relational datastore access for the asset
// registry.
//
// Two drivers are supported through database/sql: SQLite (mattn/go-sqlite3,
// the default, single connection with WAL) and PostgreSQL (lib/pq, bounded
// pool). Queries are written with ? placeholders and rebound to $n for
// PostgreSQL by the DB wrapper.
//
// Schema changes live in embedded, per-dialect migration files tracked in
// the schema_migrations table.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Driver: "sqlite3", Path: "./data/assets.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
