// Package ims integrates the admin panel with an external Identity
// Management Service over an OAuth-style authorization-code flow.
//
// The pieces, in flow order:
//   - Config resolves integration settings and renders endpoint URL
//     templates from the config store.
//   - Connection probes the authorization endpoint, fetches profiles and
//     validates tokens; redirects are never followed automatically.
//   - TokenExchanger trades an authorization code for a token pair.
//   - OrganizationService enforces (fail-closed) that the identity belongs
//     to the configured organization.
//   - UserContext resolves a stable local user id per request, memoized so
//     at most one validation or login trigger happens per session.
//   - Logout invalidates the remote session and flushes local tokens,
//     reporting success as a bool rather than an error.
package ims
