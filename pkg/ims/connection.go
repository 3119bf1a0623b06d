package ims

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gatehouse-io/gatehouse/pkg/observability"
)

// authorizationError extracts the error code an IdP embeds in its redirect
// target.
var authorizationError = regexp.MustCompile(`(?i)error=([a-z_]+)`)

// Connection talks to the identity provider's authorization, profile and
// validation endpoints. Redirects are never followed automatically; the
// authorization probe inspects the redirect target itself.
type Connection struct {
	config  *Config
	client  *http.Client
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewConnection creates a Connection with a bounded request timeout. Every
// outbound call sits on the critical path of admin identity resolution, so
// the timeout is explicit rather than inherited from http.DefaultClient.
func NewConnection(config *Config, timeout time.Duration, logger *observability.Logger) *Connection {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Connection{
		config: config,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// SetMetrics enables per-endpoint instrumentation of outbound calls.
func (c *Connection) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// observe records one outbound call against the given endpoint label.
func (c *Connection) observe(endpoint string, start time.Time, status int) {
	if c.metrics == nil {
		return
	}
	c.metrics.IMSRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.metrics.IMSRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Auth probes the authorization endpoint and returns the redirect target the
// IdP answers with. clientID overrides the stored client id when non-empty.
//
// A redirect target carrying an error=<code> parameter fails with
// *IdpRejectionError. Any status other than 302 fails with
// ErrInvalidConfiguration. Only a clean redirect is a success.
func (c *Connection) Auth(ctx context.Context, clientID string) (string, error) {
	authURL := c.config.AuthURL(ctx, clientID)

	start := time.Now()
	resp, err := c.postForm(ctx, authURL)
	if err != nil {
		return "", fmt.Errorf("authorization request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe("authorize", start, resp.StatusCode)

	location := resp.Header.Get("Location")
	if m := authorizationError.FindStringSubmatch(location); m != nil {
		return "", &IdpRejectionError{Code: strings.ToLower(m[1])}
	}
	if resp.StatusCode != http.StatusFound {
		return "", fmt.Errorf("authorization endpoint returned status %d: %w", resp.StatusCode, ErrInvalidConfiguration)
	}
	return location, nil
}

// TestConnection reports whether clientID yields a usable authorization
// redirect.
func (c *Connection) TestConnection(ctx context.Context, clientID string) (bool, error) {
	location, err := c.Auth(ctx, clientID)
	if err != nil {
		return false, err
	}
	return location != "", nil
}

// Profile fetches the authenticated user's profile with a bearer token. An
// empty body on an otherwise successful response means this identity has no
// access grant here and fails with ErrProfileUnavailable, as does a non-2xx
// status. Transport failures are reported as such.
func (c *Connection) Profile(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.ProfileURL(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("cache-control", "no-cache")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe("profile", start, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("profile endpoint returned status %d: %w", resp.StatusCode, ErrProfileUnavailable)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("profile response was empty: %w", ErrProfileUnavailable)
	}

	profile, err := parseProfile(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return profile, nil
}

// ValidateToken reports whether a previously issued access token is still
// valid. A false result means "session no longer trustworthy", not "no token
// present"; callers distinguish those states themselves. Failures to reach
// the endpoint count as invalid and are logged.
func (c *Connection) ValidateToken(ctx context.Context, token string) bool {
	form := url.Values{
		"token":     {token},
		"client_id": {c.config.ClientID(ctx)},
		"type":      {"access_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.ValidateURL(ctx), strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.WithError(err).Error("failed to build token validation request")
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("token validation request failed")
		return c.countValidation(false)
	}
	defer resp.Body.Close()
	c.observe("validate", start, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return c.countValidation(false)
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.WithError(err).Error("failed to decode token validation response")
		return c.countValidation(false)
	}
	return c.countValidation(result.Valid)
}

// countValidation records the validation outcome and passes it through.
func (c *Connection) countValidation(valid bool) bool {
	if c.metrics != nil {
		result := "invalid"
		if valid {
			result = "valid"
		}
		c.metrics.TokenValidationsTotal.WithLabelValues(result).Inc()
	}
	return valid
}

// LogoutStatus calls the backend logout endpoint for token and returns the
// HTTP status code.
func (c *Connection) LogoutStatus(ctx context.Context, token string) (int, error) {
	start := time.Now()
	resp, err := c.postForm(ctx, c.config.LogoutURL(ctx, token))
	if err != nil {
		return 0, fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe("logout", start, resp.StatusCode)
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Connection) postForm(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(""))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("cache-control", "no-cache")
	return c.client.Do(req)
}
