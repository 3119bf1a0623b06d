package ims

import (
	"encoding/json"
	"fmt"
)

// Profile is the identity provider's view of the authenticated user. The
// schema is owned by the IdP; beyond Email and the organization claims only
// the raw payload is carried.
type Profile struct {
	Email         string
	Name          string
	Organizations []string
	Raw           map[string]interface{}
}

// parseProfile extracts the fields the integration depends on. Organization
// claims are read from a top-level "organizations" string array or, failing
// that, from the "organization" field of each entry in "roles".
func parseProfile(body []byte) (*Profile, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid profile payload: %w", err)
	}

	profile := &Profile{Raw: raw}
	if email, ok := raw["email"].(string); ok {
		profile.Email = email
	}
	if name, ok := raw["name"].(string); ok {
		profile.Name = name
	}

	if orgs, ok := raw["organizations"].([]interface{}); ok {
		for _, org := range orgs {
			if s, ok := org.(string); ok {
				profile.Organizations = append(profile.Organizations, s)
			}
		}
	}
	if roles, ok := raw["roles"].([]interface{}); ok {
		for _, role := range roles {
			entry, ok := role.(map[string]interface{})
			if !ok {
				continue
			}
			if org, ok := entry["organization"].(string); ok && org != "" {
				profile.Organizations = append(profile.Organizations, org)
			}
		}
	}
	return profile, nil
}
