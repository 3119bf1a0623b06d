package ims

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gatehouse-io/gatehouse/pkg/observability"
)

// TokenStore exposes the locally persisted token state of the session being
// logged out.
type TokenStore interface {
	// AccessToken returns the stored access token, or "" when none is held.
	AccessToken(ctx context.Context) (string, error)
	// Flush removes every locally stored token for the session.
	Flush(ctx context.Context) error
}

// Logout invalidates the remote IMS session and clears local token state.
// Execute never propagates an error: logout must not block the host's wider
// session-teardown sequence, so every failure is logged and reported as
// false.
type Logout struct {
	config     *Config
	connection *Connection
	tokens     TokenStore
	logger     *observability.Logger
}

// NewLogout creates a Logout for the session behind tokens.
func NewLogout(config *Config, connection *Connection, tokens TokenStore, logger *observability.Logger) *Logout {
	return &Logout{
		config:     config,
		connection: connection,
		tokens:     tokens,
		logger:     logger,
	}
}

// Execute performs the remote logout. An absent token means there is nothing
// to invalidate and counts as success with no network call. On any success
// path the locally stored tokens are flushed.
func (l *Logout) Execute(ctx context.Context) bool {
	accessToken, err := l.tokens.AccessToken(ctx)
	if err != nil {
		l.logger.WithError(err).Critical("failed to read access token during logout")
		return false
	}
	if accessToken == "" {
		return true
	}

	if err := l.remoteLogout(ctx, accessToken); err != nil {
		l.logger.WithError(err).Critical("remote logout failed")
		return false
	}

	if err := l.tokens.Flush(ctx); err != nil {
		l.logger.WithError(err).Critical("failed to flush tokens after logout")
		return false
	}
	return true
}

// remoteLogout invalidates the session at the IdP. The logout endpoint's
// HTTP status alone is not a trustworthy signal that the remote session is
// gone, so profile reachability is probed before and after the call and used
// as ground truth.
func (l *Logout) remoteLogout(ctx context.Context, accessToken string) error {
	found, err := l.profileFound(ctx, accessToken)
	if err != nil {
		return err
	}
	if !found {
		// The profile is already invalidated; no remote session exists, which
		// is the desired end state.
		return nil
	}

	status, err := l.connection.LogoutStatus(ctx, accessToken)
	if err != nil {
		return err
	}

	found, err = l.profileFound(ctx, accessToken)
	if err != nil {
		return err
	}
	if status != http.StatusOK || found {
		return fmt.Errorf("remote session still reachable after logout call (status %d): %w", status, ErrLogoutFailed)
	}
	return nil
}

// profileFound reports whether the profile is still resolvable for the token.
// ErrProfileUnavailable means the token no longer resolves a profile and is
// an expected state here, not a failure.
func (l *Logout) profileFound(ctx context.Context, accessToken string) (bool, error) {
	profile, err := l.connection.Profile(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrProfileUnavailable) {
			return false, nil
		}
		return false, err
	}
	return profile.Email != "", nil
}
