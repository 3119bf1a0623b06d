package ims

import (
	"errors"
	"fmt"
)

// Sentinel errors for the IMS integration. Callers branch on these with
// errors.Is; provider-native errors never cross a component boundary.
var (
	// ErrInvalidConfiguration indicates a malformed URL template or an
	// unexpected response from the identity provider where a redirect was
	// required.
	ErrInvalidConfiguration = errors.New("invalid IMS configuration")

	// ErrOrganizationDenied indicates the authenticated identity is not part
	// of the organization controlling this instance, or that no organization
	// is configured at all (fail-closed).
	ErrOrganizationDenied = errors.New("user is not assigned to the configured organization")

	// ErrAuthenticationFailed indicates an existing token failed validation
	// or a code exchange was rejected for non-organizational reasons.
	ErrAuthenticationFailed = errors.New("authentication failed, verify and try again")

	// ErrProfileUnavailable indicates the profile endpoint returned no usable
	// profile for the token. This means "no access grant for this identity",
	// not a transport failure.
	ErrProfileUnavailable = errors.New("user profile is not available")

	// ErrLogoutFailed indicates the remote session could not be confirmed as
	// invalidated. It never propagates past Logout.Execute.
	ErrLogoutFailed = errors.New("logout operation failed")
)

// IdpRejectionError is returned when the identity provider's authorization
// redirect carries an explicit error code.
type IdpRejectionError struct {
	Code string
}

func (e *IdpRejectionError) Error() string {
	return fmt.Sprintf("identity provider rejected the request: %s", e.Code)
}
