package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cardforge/internal/bin/models"
)

// PostgresBinStore resolves BIN metadata from PostgreSQL.
// The bins table is loaded by an external import job and treated as read-only here.
type PostgresBinStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed BIN store.
func NewPostgres(db *sql.DB) *PostgresBinStore {
	return &PostgresBinStore{db: db}
}

func (s *PostgresBinStore) Lookup(ctx context.Context, prefix string) (*models.BinRecord, error) {
	query := `
		SELECT prefix, brand, category, issuer, country_code, country_name
		FROM bins
		WHERE prefix = $1
	`
	var record models.BinRecord
	err := s.db.QueryRowContext(ctx, query, prefix).Scan(
		&record.Prefix,
		&record.Brand,
		&record.Category,
		&record.Issuer,
		&record.CountryCode,
		&record.CountryName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup bin: %w", err)
	}
	return &record, nil
}

// PostgresBlocklist checks prefixes against the blocked_bins table.
type PostgresBlocklist struct {
	db *sql.DB
}

// NewPostgresBlocklist constructs a PostgreSQL-backed blocklist.
func NewPostgresBlocklist(db *sql.DB) *PostgresBlocklist {
	return &PostgresBlocklist{db: db}
}

func (s *PostgresBlocklist) IsBlocked(ctx context.Context, prefix string) (bool, string, error) {
	var reason string
	err := s.db.QueryRowContext(ctx,
		`SELECT reason FROM blocked_bins WHERE prefix = $1`, prefix,
	).Scan(&reason)
	if errors.Is(err, sql.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("check blocklist: %w", err)
	}
	return true, reason, nil
}
