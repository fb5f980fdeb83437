package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for assets.
type Repository interface {
	// List returns every asset, newest first by creation time.
	List(ctx context.Context) ([]Asset, error)

	// GetByID returns the asset with the given ID, or nil with no error
	// when it does not exist.
	GetByID(ctx context.Context, id string) (*Asset, error)

	// IsSerialUnique reports whether no asset other than excludeID uses
	// serial. Pass an empty excludeID on create.
	IsSerialUnique(ctx context.Context, serial, excludeID string) (bool, error)

	// Create stores a new asset with a generated ID and returns the stored
	// record. Returns ErrSerialNumberExists on a serial collision.
	Create(ctx context.Context, f Fields) (*Asset, error)

	// Update overwrites the client-writable fields of an asset and returns
	// the stored record. Returns ErrAssetNotFound if the ID does not exist
	// and ErrSerialNumberExists on a serial collision.
	Update(ctx context.Context, id string, f Fields) (*Asset, error)

	// Delete removes an asset and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// CountByStatus returns the number of assets per status.
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// timeLayout is fixed width so TEXT timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `id, asset_name, serial_number, status,
			last_maintenance_date, oee_score, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// List returns every asset ordered by created_at descending.
func (r *SQLiteRepository) List(ctx context.Context) ([]Asset, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM industrial_assets
		ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	assets := []Asset{}
	for rows.Next() {
		a, err := scanSQLiteAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}

	return assets, nil
}

// GetByID retrieves an asset by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Asset, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM industrial_assets
		WHERE id = ?`

	a, err := scanSQLiteAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // absence is not an error here
		}
		return nil, fmt.Errorf("querying asset by id: %w", err)
	}
	return a, nil
}

// IsSerialUnique reports whether serial is free for use by excludeID.
func (r *SQLiteRepository) IsSerialUnique(ctx context.Context, serial, excludeID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM industrial_assets WHERE serial_number = ? AND id != ?",
		serial, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking serial number: %w", err)
	}
	return count == 0, nil
}

// Create inserts a new asset.
func (r *SQLiteRepository) Create(ctx context.Context, f Fields) (*Asset, error) {
	id := uuid.NewString()
	now := formatTime(r.now())

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO industrial_assets (
			id, asset_name, serial_number, status,
			last_maintenance_date, oee_score, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, f.AssetName, f.SerialNumber, string(f.Status),
		f.LastMaintenanceDate, f.OEEScore, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSerialNumberExists
		}
		return nil, fmt.Errorf("inserting asset: %w", err)
	}

	return r.reload(ctx, id)
}

// Update overwrites the client-writable fields of an asset.
func (r *SQLiteRepository) Update(ctx context.Context, id string, f Fields) (*Asset, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE industrial_assets SET
			asset_name = ?, serial_number = ?, status = ?,
			last_maintenance_date = ?, oee_score = ?, updated_at = ?
		WHERE id = ?`,
		f.AssetName, f.SerialNumber, string(f.Status),
		f.LastMaintenanceDate, f.OEEScore, formatTime(r.now()), id,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSerialNumberExists
		}
		return nil, fmt.Errorf("updating asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrAssetNotFound
	}

	return r.reload(ctx, id)
}

// Delete removes an asset by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM industrial_assets WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByStatus groups assets by status.
func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return countByStatus(ctx, r.db)
}

func (r *SQLiteRepository) reload(ctx context.Context, id string) (*Asset, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("asset %s missing after write", id)
	}
	return a, nil
}

// queryer is the subset of *sql.DB used by helpers shared across drivers.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func countByStatus(ctx context.Context, db queryer) (map[Status]int, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM industrial_assets GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting assets: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, 3)
	for _, s := range AllStatuses() {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}
	return counts, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAsset(scanner rowScanner) (*Asset, error) {
	var a Asset
	var status, createdAt, updatedAt string

	err := scanner.Scan(
		&a.ID, &a.AssetName, &a.SerialNumber, &status,
		&a.LastMaintenanceDate, &a.OEEScore, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
