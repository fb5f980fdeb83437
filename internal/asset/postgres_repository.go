package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes mapped onto domain errors.
const (
	pqUniqueViolation       = "23505"
	pqInvalidDatetimeFormat = "22007"
	pqDatetimeOutOfRange    = "22008"
)

// PostgresRepository implements Repository using PostgreSQL via lib/pq.
//
// last_maintenance_date is a DATE column and timestamps are TIMESTAMPTZ,
// so the server does the type checking that SQLite leaves to CHECK
// constraints.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository creates a PostgreSQL-backed repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// List returns every asset ordered by created_at descending.
func (r *PostgresRepository) List(ctx context.Context) ([]Asset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM industrial_assets
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	assets := []Asset{}
	for rows.Next() {
		a, err := scanPostgresAsset(rows)
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
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM industrial_assets
		WHERE id = $1`, id)

	a, err := scanPostgresAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // absence is not an error here
		}
		return nil, fmt.Errorf("querying asset by id: %w", err)
	}
	return a, nil
}

// IsSerialUnique reports whether serial is free for use by excludeID.
func (r *PostgresRepository) IsSerialUnique(ctx context.Context, serial, excludeID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM industrial_assets WHERE serial_number = $1 AND id != $2",
		serial, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking serial number: %w", err)
	}
	return count == 0, nil
}

// Create inserts a new asset and returns the stored row.
func (r *PostgresRepository) Create(ctx context.Context, f Fields) (*Asset, error) {
	now := r.now().UTC()

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO industrial_assets (
			id, asset_name, serial_number, status,
			last_maintenance_date, oee_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+selectColumns,
		uuid.NewString(), f.AssetName, f.SerialNumber, string(f.Status),
		f.LastMaintenanceDate, f.OEEScore, now, now,
	)

	a, err := scanPostgresAsset(row)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrSerialNumberExists
		case isDateRejected(err):
			return nil, &ValidationError{Field: "last_maintenance_date", Message: msgInvalidDate}
		}
		return nil, fmt.Errorf("inserting asset: %w", err)
	}
	return a, nil
}

// Update overwrites the client-writable fields of an asset.
func (r *PostgresRepository) Update(ctx context.Context, id string, f Fields) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE industrial_assets SET
			asset_name = $1, serial_number = $2, status = $3,
			last_maintenance_date = $4, oee_score = $5, updated_at = $6
		WHERE id = $7
		RETURNING `+selectColumns,
		f.AssetName, f.SerialNumber, string(f.Status),
		f.LastMaintenanceDate, f.OEEScore, r.now().UTC(), id,
	)

	a, err := scanPostgresAsset(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrAssetNotFound
		case isUniqueViolation(err):
			return nil, ErrSerialNumberExists
		case isDateRejected(err):
			return nil, &ValidationError{Field: "last_maintenance_date", Message: msgInvalidDate}
		}
		return nil, fmt.Errorf("updating asset: %w", err)
	}
	return a, nil
}

// Delete removes an asset by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM industrial_assets WHERE id = $1", id)
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
func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return countByStatus(ctx, r.db)
}

func scanPostgresAsset(scanner rowScanner) (*Asset, error) {
	var a Asset
	var status string
	var maintained time.Time

	err := scanner.Scan(
		&a.ID, &a.AssetName, &a.SerialNumber, &status,
		&maintained, &a.OEEScore, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.LastMaintenanceDate = maintained.Format(DateLayout)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func isUniqueViolation(err error) bool {
	return hasCode(err, pqUniqueViolation)
}

// isDateRejected matches a well-formed but impossible DATE such as
// 2024-02-30.
func isDateRejected(err error) bool {
	return hasCode(err, pqInvalidDatetimeFormat) || hasCode(err, pqDatetimeOutOfRange)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
