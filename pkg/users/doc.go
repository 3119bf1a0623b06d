// Package users materializes local admin users from identity-provider
// profiles.
//
// # Overview
//
// The IMS integration never trusts remote identifiers directly; every
// authenticated request resolves to a stable numeric local user id. The
// Provisioner creates that user on first login (keyed by profile email) and
// refreshes the last-login timestamp afterwards. New users get a welcome
// notification through the Notifier interface; actual mail delivery is an
// external collaborator.
//
// # Related Packages
//
//   - pkg/ims: produces the Profile consumed here
//   - pkg/api: runs provisioning inside the OAuth callback handler
package users
