// Package migrations embeds the SQL migration files into the binary, one
// directory per database dialect.
package migrations

import (
	"embed"

	"github.com/nerrad567/asset-registry/internal/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

// FS exposes the embedded files for tests that build schemas directly.
func FS() embed.FS {
	return migrationsFS
}

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
