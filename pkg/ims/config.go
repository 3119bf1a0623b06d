package ims

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/gatehouse-io/gatehouse/pkg/configstore"
)

// Configuration paths in the config store.
const (
	PathEnabled            = "ims/integration/enabled"
	PathOrganizationID     = "ims/integration/organization_id"
	PathClientID           = "ims/integration/client_id"
	PathClientSecret       = "ims/integration/client_secret"
	PathAuthURLPattern     = "ims/integration/auth_url_pattern"
	PathTokenURL           = "ims/integration/token_url"
	PathProfileURLPattern  = "ims/integration/profile_url_pattern"
	PathValidateURLPattern = "ims/integration/validate_url_pattern"
	PathLogoutURLPattern   = "ims/integration/logout_url_pattern"
	PathLocale             = "ims/integration/locale"
	PathStrictMembership   = "ims/integration/strict_membership"
)

// maskedValue matches the all-asterisk placeholder admin forms display in
// place of a stored secret.
var maskedValue = regexp.MustCompile(`^\*+$`)

// escapedNewlines restores literal newline escapes in values pasted from
// admin forms.
var escapedNewlines = strings.NewReplacer(`\n`, "\n", `\r`, "\r")

// Defaults supplies URL patterns and locale used when the store has no
// explicit value. Patterns use #{name} placeholders; see Config for the
// recognized names.
type Defaults struct {
	AuthURLPattern     string
	TokenURL           string
	ProfileURLPattern  string
	ValidateURLPattern string
	LogoutURLPattern   string
	Locale             string
}

// Config resolves the IMS integration settings from the config store and
// renders the endpoint URL templates. Secrets are stored encrypted; writes of
// masked or empty values are dropped so a form round-trip cannot overwrite a
// real secret with its display placeholder.
type Config struct {
	store       configstore.Store
	encryptor   configstore.Encryptor
	callbackURL string
	defaults    Defaults
}

// NewConfig creates a Config. callbackURL is the absolute OAuth callback URL
// of this instance, substituted for #{redirect_uri} in the authorization
// pattern.
func NewConfig(store configstore.Store, encryptor configstore.Encryptor, callbackURL string, defaults Defaults) *Config {
	return &Config{
		store:       store,
		encryptor:   encryptor,
		callbackURL: callbackURL,
		defaults:    defaults,
	}
}

// Enabled reports whether the IMS integration is turned on.
func (c *Config) Enabled(ctx context.Context) bool {
	value, err := c.store.Get(ctx, PathEnabled)
	if err != nil {
		return false
	}
	return value == "1" || strings.EqualFold(value, "true")
}

// StrictMembership reports whether the callback flow must cross-check the
// fetched profile's organization claims against the configured organization
// id.
func (c *Config) StrictMembership(ctx context.Context) bool {
	value, err := c.store.Get(ctx, PathStrictMembership)
	if err != nil {
		return false
	}
	return value == "1" || strings.EqualFold(value, "true")
}

// ClientID returns the decrypted client id, or "" when unset.
func (c *Config) ClientID(ctx context.Context) string {
	return c.secureValue(ctx, PathClientID)
}

// ClientSecret returns the decrypted client secret, or "" when unset.
func (c *Config) ClientSecret(ctx context.Context) string {
	return c.secureValue(ctx, PathClientSecret)
}

// OrganizationID returns the decrypted organization id, or "" when unset.
func (c *Config) OrganizationID(ctx context.Context) string {
	return c.secureValue(ctx, PathOrganizationID)
}

// CallbackURL returns the OAuth callback URL of this instance.
func (c *Config) CallbackURL() string {
	return c.callbackURL
}

// AuthURL renders the authorization URL for clientID, or for the stored
// client id when clientID is empty.
func (c *Config) AuthURL(ctx context.Context, clientID string) string {
	if clientID == "" {
		clientID = c.ClientID(ctx)
	}
	pattern := c.patternValue(ctx, PathAuthURLPattern, c.defaults.AuthURLPattern)
	return substitute(pattern, map[string]string{
		"client_id":    clientID,
		"redirect_uri": c.callbackURL,
		"locale":       c.locale(ctx),
	})
}

// TokenURL returns the token endpoint URL.
func (c *Config) TokenURL(ctx context.Context) string {
	return c.patternValue(ctx, PathTokenURL, c.defaults.TokenURL)
}

// ProfileURL renders the profile endpoint URL.
func (c *Config) ProfileURL(ctx context.Context) string {
	pattern := c.patternValue(ctx, PathProfileURLPattern, c.defaults.ProfileURLPattern)
	return substitute(pattern, map[string]string{
		"client_id": c.ClientID(ctx),
	})
}

// ValidateURL renders the token validation endpoint URL.
func (c *Config) ValidateURL(ctx context.Context) string {
	pattern := c.patternValue(ctx, PathValidateURLPattern, c.defaults.ValidateURLPattern)
	return substitute(pattern, map[string]string{
		"client_id": c.ClientID(ctx),
	})
}

// LogoutURL renders the backend logout URL for accessToken.
func (c *Config) LogoutURL(ctx context.Context, accessToken string) string {
	pattern := c.patternValue(ctx, PathLogoutURLPattern, c.defaults.LogoutURLPattern)
	return substitute(pattern, map[string]string{
		"access_token":  accessToken,
		"client_secret": c.ClientSecret(ctx),
		"client_id":     c.ClientID(ctx),
	})
}

// EnableModule turns the integration on and stores the credentials. The
// secret values go through the encryptor; see UpdateSecureConfig for the
// masked-value rule.
func (c *Config) EnableModule(ctx context.Context, clientID, clientSecret, organizationID string) error {
	if err := c.UpdateConfig(ctx, PathEnabled, "1"); err != nil {
		return err
	}
	if err := c.UpdateSecureConfig(ctx, PathOrganizationID, organizationID); err != nil {
		return err
	}
	if err := c.UpdateSecureConfig(ctx, PathClientID, clientID); err != nil {
		return err
	}
	return c.UpdateSecureConfig(ctx, PathClientSecret, clientSecret)
}

// DisableModule turns the integration off and deletes the stored credentials.
// No partial state is retained.
func (c *Config) DisableModule(ctx context.Context) error {
	if err := c.UpdateConfig(ctx, PathEnabled, "0"); err != nil {
		return err
	}
	if err := c.DeleteConfig(ctx, PathOrganizationID); err != nil {
		return err
	}
	if err := c.DeleteConfig(ctx, PathClientID); err != nil {
		return err
	}
	return c.DeleteConfig(ctx, PathClientSecret)
}

// UpdateConfig writes a plain value at path.
func (c *Config) UpdateConfig(ctx context.Context, path, value string) error {
	if err := c.store.Set(ctx, path, value); err != nil {
		return fmt.Errorf("failed to update config %s: %w", path, err)
	}
	return nil
}

// UpdateSecureConfig encrypts and writes a secret value. An empty value or an
// all-asterisk mask is treated as "keep the existing secret" and performs no
// write at all.
func (c *Config) UpdateSecureConfig(ctx context.Context, path, value string) error {
	value = escapedNewlines.Replace(value)
	if value == "" || maskedValue.MatchString(value) {
		return nil
	}
	encrypted, err := c.encryptor.Encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt config %s: %w", path, err)
	}
	if err := c.store.Set(ctx, path, encrypted); err != nil {
		return fmt.Errorf("failed to update config %s: %w", path, err)
	}
	return nil
}

// DeleteConfig removes the value at path.
func (c *Config) DeleteConfig(ctx context.Context, path string) error {
	if err := c.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete config %s: %w", path, err)
	}
	return nil
}

func (c *Config) secureValue(ctx context.Context, path string) string {
	encrypted, err := c.store.Get(ctx, path)
	if err != nil || encrypted == "" {
		return ""
	}
	value, err := c.encryptor.Decrypt(encrypted)
	if err != nil {
		return ""
	}
	return value
}

func (c *Config) patternValue(ctx context.Context, path, fallback string) string {
	value, err := c.store.Get(ctx, path)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

func (c *Config) locale(ctx context.Context) string {
	value, err := c.store.Get(ctx, PathLocale)
	if err != nil || value == "" {
		return c.defaults.Locale
	}
	return value
}

// substitute replaces #{name} placeholders in pattern. Values are
// query-escaped so live values cannot inject into the query string.
// Unresolved placeholders are left in place; callers validate the IdP
// response rather than trusting template correctness.
func substitute(pattern string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "#{"+name+"}", url.QueryEscape(value))
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}
