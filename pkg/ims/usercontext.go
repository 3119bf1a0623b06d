package ims

import (
	"context"
	"fmt"
)

// Session is the per-request view of the host's session storage consulted
// during identity resolution.
type Session interface {
	// AccessToken returns the externally issued token held by the session,
	// or "" when none is present.
	AccessToken() string
	// UserID returns the resolved local admin user id, or 0 when the session
	// carries none.
	UserID() int64
}

// TokenValidator determines whether a previously issued access token is
// still valid. Implemented by Connection.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) bool
}

// LoginProcessor triggers the interactive login flow when the session holds
// no token. It is expected to populate the session token as a side effect
// before returning.
type LoginProcessor interface {
	ProcessLoginRequest(ctx context.Context) error
}

// UserContext resolves the admin user identity for a single request or
// session. It is a two-state machine: Unresolved until the first successful
// UserID call, then Resolved for the rest of the session's lifetime, after
// which no further network calls are made.
//
// Not safe for concurrent use; it is scoped to one request.
type UserContext struct {
	config    *Config
	session   Session
	validator TokenValidator
	login     LoginProcessor

	userID   int64
	resolved bool
}

// NewUserContext creates an unresolved UserContext over session.
func NewUserContext(config *Config, session Session, validator TokenValidator, login LoginProcessor) *UserContext {
	return &UserContext{
		config:    config,
		session:   session,
		validator: validator,
		login:     login,
	}
}

// UserID returns the local admin user id for the session.
//
// When the integration is disabled, or the context is already resolved, the
// cached value is returned immediately: no enforcement happens while
// disabled, which lets the host fall back to native authentication. An
// existing session token is validated exactly once; an invalid token fails
// with ErrAuthenticationFailed and no retry. An absent token delegates to
// the login processor.
func (u *UserContext) UserID(ctx context.Context) (int64, error) {
	if !u.config.Enabled(ctx) || u.resolved {
		return u.userID, nil
	}

	if token := u.session.AccessToken(); token != "" {
		if !u.validator.ValidateToken(ctx, token) {
			return 0, fmt.Errorf("session token is no longer valid: %w", ErrAuthenticationFailed)
		}
	} else {
		if err := u.login.ProcessLoginRequest(ctx); err != nil {
			return 0, err
		}
	}

	u.userID = u.session.UserID()
	u.resolved = true
	return u.userID, nil
}
