// Package api provides the HTTP surface of the admin authentication service.
//
// # Overview
//
// The server exposes three groups of routes:
//
//   - /auth/ims/*: the interactive login flow against the identity provider
//     (authorization redirect, callback code exchange, remote logout)
//   - /auth/login, /auth/forgot-password: guards that keep native credential
//     authentication disabled while the integration is active
//   - /admin/ims/*: enabling, disabling and probing the integration
//
// Session state is carried by an opaque cookie resolving to a session.Store
// entry. SessionMiddleware attaches the session and an identity resolution
// context to every request; RequireSession enforces authentication on the
// routes that need it.
//
// # Related Packages
//
//   - pkg/ims: identity provider protocol flows
//   - pkg/session: session persistence
//   - pkg/users: just-in-time admin user provisioning
package api
