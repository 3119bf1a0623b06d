package users

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// User represents a local admin user materialized from an IMS profile.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Store persists admin users in the relational database shared with the
// config store.
type Store struct {
	db     *sql.DB
	driver string
}

// NewStore creates a user store backed by db. driver selects the id-column
// DDL; the query placeholders themselves are portable.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// EnsureSchema creates the admin_users table if it does not exist. The id
// column must auto-generate on insert: Postgres needs an IDENTITY column for
// that, while on SQLite a plain INTEGER PRIMARY KEY is already a rowid alias.
func (s *Store) EnsureSchema(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY"
	if s.driver == "postgres" {
		idColumn = "BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY"
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS admin_users (
			id            `+idColumn+`,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			full_name     TEXT NOT NULL DEFAULT '',
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create admin_users table: %w", err)
	}
	return nil
}

// FindByEmail returns the user with the given email, or nil when none
// exists.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, is_active, created_at, updated_at, last_login_at
		FROM admin_users WHERE email = $1
	`, email).Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return user, nil
}

// Create inserts a new active user and returns it.
func (s *Store) Create(ctx context.Context, username, email, fullName string) (*User, error) {
	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_users (username, email, full_name, is_active, created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, TRUE, $4, $4, $4)
		RETURNING id
	`, username, email, fullName, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &User{
		ID:          id,
		Username:    username,
		Email:       email,
		FullName:    fullName,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: &now,
	}, nil
}

// TouchLogin updates the user's last-login timestamp.
func (s *Store) TouchLogin(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE admin_users SET last_login_at = $1, updated_at = $1 WHERE id = $2
	`, now, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
