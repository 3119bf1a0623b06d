package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session id resolves to nothing, either
// because it never existed or because it expired.
var ErrNotFound = errors.New("session not found")

// Data is the per-session state materialized after a successful login. The
// externally issued tokens live here and nowhere else; flushing them is a
// Delete of the session.
type Data struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (d *Data) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}

// Store persists admin sessions.
type Store interface {
	// Get returns the session for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Data, error)
	// Put stores the session under its ID until its expiry.
	Put(ctx context.Context, data *Data) error
	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
}
