package ims

import (
	"context"
	"fmt"
	"strings"
)

// OrganizationService enforces organization membership for authenticated
// identities. Enforcement is fail-closed: an unset organization id is itself
// a denial, never an allow-all default.
type OrganizationService struct {
	config *Config
}

// NewOrganizationService creates an OrganizationService over config.
func NewOrganizationService(config *Config) *OrganizationService {
	return &OrganizationService{config: config}
}

// CheckMembership fails with ErrOrganizationDenied unless an organization id
// is configured. The token value itself is not inspected here; profile-level
// cross-checking is CheckProfileMembership.
func (s *OrganizationService) CheckMembership(ctx context.Context, _ string) error {
	if strings.TrimSpace(s.config.OrganizationID(ctx)) == "" {
		return fmt.Errorf("no organization id configured: %w", ErrOrganizationDenied)
	}
	return nil
}

// CheckProfileMembership additionally requires the profile's organization
// claims to contain the configured id. The callback flow runs this when
// strict membership checking is enabled.
func (s *OrganizationService) CheckProfileMembership(ctx context.Context, profile *Profile) error {
	organizationID := strings.TrimSpace(s.config.OrganizationID(ctx))
	if organizationID == "" {
		return fmt.Errorf("no organization id configured: %w", ErrOrganizationDenied)
	}
	for _, org := range profile.Organizations {
		if org == organizationID {
			return nil
		}
	}
	return fmt.Errorf("profile has no membership in organization %s: %w", organizationID, ErrOrganizationDenied)
}
