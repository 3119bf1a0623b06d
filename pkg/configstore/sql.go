package configstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLStore persists configuration in a relational database. The schema works
// unchanged on PostgreSQL (lib/pq) and SQLite (go-sqlite3); both accept the
// $N placeholder syntax.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store backed by db. The config_entries table must
// exist; EnsureSchema creates it.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureSchema creates the config_entries table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS config_entries (
			path       TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create config_entries table: %w", err)
	}
	return nil
}

// Get returns the value at path, or "" when unset.
func (s *SQLStore) Get(ctx context.Context, path string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM config_entries WHERE path = $1
	`, path).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return value, nil
}

// Set upserts the value at path.
func (s *SQLStore) Set(ctx context.Context, path, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config_entries (path, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET value = $2, updated_at = $3
	`, path, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Delete removes the value at path. Deleting an absent path is not an error.
func (s *SQLStore) Delete(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM config_entries WHERE path = $1
	`, path)
	if err != nil {
		return fmt.Errorf("failed to delete config %s: %w", path, err)
	}
	return nil
}
