// Package session persists admin sessions created after a successful
// identity-provider login.
//
// # Overview
//
// A session binds the externally issued access/refresh tokens to the locally
// resolved admin user id. Two Store implementations are provided:
//
//	RedisStore:  production; TTL-based expiry handled by Redis
//	MemoryStore: tests and single-node deployments; swept on a schedule
//
// # Related Packages
//
//   - pkg/ims: consumes the session token during identity resolution
//   - pkg/api: creates and destroys sessions in the login/logout handlers
package session
