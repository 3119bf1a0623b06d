// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/gatehouse-io/gatehouse/pkg/contextkeys"
//   ctx = context.WithValue(ctx, contextkeys.SessionKey, sess)
//   sess := ctx.Value(contextkeys.SessionKey).(*session.Data)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *session.Data for the authenticated admin session
	// Set by: api.SessionMiddleware (pkg/api/middleware.go)
	// Required by: All authenticated endpoints
	// Type: *session.Data
	SessionKey Key = "session"

	// UserContextKey contains *ims.UserContext for the current request
	// Set by: api.SessionMiddleware (pkg/api/middleware.go)
	// Used by: Handlers that resolve the acting admin user
	// Type: *ims.UserContext
	UserContextKey Key = "user_context"
)

// Request id and logger keys live in pkg/observability, which owns their
// accessors.

// Helper functions for type-safe context operations

// WithSession adds the session data to the context
func WithSession(ctx context.Context, sess interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// WithUserContext adds the user context to the context
func WithUserContext(ctx context.Context, uc interface{}) context.Context {
	return context.WithValue(ctx, UserContextKey, uc)
}
