package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/contextkeys"
	"github.com/gatehouse-io/gatehouse/pkg/httputil"
	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/session"
)

// handleLogin handles GET /auth/ims/login
//
// Redirects the browser to the identity provider's authorization endpoint.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.imsConfig.Enabled(ctx) {
		httputil.WriteNotFoundError(w, "identity provider integration is disabled")
		return
	}

	authURL := s.imsConfig.AuthURL(ctx, "")
	if authURL == "" {
		httputil.WriteInternalError(w, ims.ErrInvalidConfiguration)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback handles GET /auth/ims/callback
//
// The authorization-code leg of the login flow: exchange the code, enforce
// organization membership, fetch the profile, provision the local user and
// establish the session. Organization denials get a 403 with an explicit
// message; every other failure collapses to a generic 401.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.imsConfig.Enabled(ctx) {
		httputil.WriteNotFoundError(w, "identity provider integration is disabled")
		return
	}

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		s.failLogin(w, &ims.IdpRejectionError{Code: errCode})
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		s.failLogin(w, ims.ErrAuthenticationFailed)
		return
	}

	token, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		s.countTokenExchange("failure")
		s.failLogin(w, err)
		return
	}
	s.countTokenExchange("success")

	if err := s.orgs.CheckMembership(ctx, token.AccessToken); err != nil {
		s.failLogin(w, err)
		return
	}

	profile, err := s.connection.Profile(ctx, token.AccessToken)
	if err != nil {
		s.failLogin(w, err)
		return
	}

	if s.imsConfig.StrictMembership(ctx) {
		if err := s.orgs.CheckProfileMembership(ctx, profile); err != nil {
			s.failLogin(w, err)
			return
		}
	}

	user, err := s.provisioner.Provision(ctx, profile)
	if err != nil {
		s.failLogin(w, err)
		return
	}

	now := time.Now()
	data := &session.Data{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionSettings.Lifetime),
	}
	if err := s.sessions.Put(ctx, data); err != nil {
		s.logger.WithError(err).Error("failed to persist session")
		s.failLogin(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		s.metrics.SessionsCreated.Inc()
	}
	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("admin login completed")

	s.setSessionCookie(w, data)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout handles POST /auth/ims/logout
//
// Invalidates the remote session and removes the local one. The response
// reports the remote outcome but the local session and cookie are always
// cleared.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, _ := ctx.Value(contextkeys.SessionKey).(*session.Data)

	logout := ims.NewLogout(s.imsConfig, s.connection, sessionTokens{store: s.sessions, data: data}, s.logger)
	ok := logout.Execute(ctx)

	if s.metrics != nil {
		result := "success"
		if !ok {
			result = "failure"
		}
		s.metrics.LogoutsTotal.WithLabelValues(result).Inc()
	}

	// The remote outcome never keeps a browser logged in locally.
	if data != nil {
		if err := s.sessions.Delete(ctx, data.ID); err != nil {
			s.logger.WithError(err).Error("failed to delete session")
		}
	}
	s.clearSessionCookie(w)

	httputil.WriteSuccess(w, map[string]bool{"success": ok})
}

// handleNativeLogin handles POST /auth/login
//
// While the integration is enabled, native credential login is refused and
// the caller is pointed at the identity provider flow.
func (s *Server) handleNativeLogin(w http.ResponseWriter, r *http.Request) {
	if s.imsConfig.Enabled(r.Context()) {
		w.Header().Set("Location", "/auth/ims/login")
		httputil.WriteForbidden(w, "native authentication is disabled while the identity provider integration is active")
		return
	}
	httputil.WriteNotFoundError(w, "native authentication is handled by the host application")
}

// handleForgotPassword handles /auth/forgot-password
//
// Password resets are meaningless for externally managed identities, so an
// enabled integration redirects straight into the login flow.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if s.imsConfig.Enabled(r.Context()) {
		http.Redirect(w, r, "/auth/ims/login", http.StatusFound)
		return
	}
	httputil.WriteNotFoundError(w, "password reset is handled by the host application")
}

// handleWhoAmI handles GET /auth/me
func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	data, _ := r.Context().Value(contextkeys.SessionKey).(*session.Data)
	if data == nil {
		httputil.WriteUnauthorized(w, "no active session")
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"user_id":    data.UserID,
		"email":      data.Email,
		"expires_at": data.ExpiresAt,
	})
}

// failLogin maps a login-flow error to its HTTP response and records the
// failed attempt.
func (s *Server) failLogin(w http.ResponseWriter, err error) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
	}
	s.logger.WithError(err).Warn("admin login failed")

	var rejection *ims.IdpRejectionError
	switch {
	case errors.Is(err, ims.ErrOrganizationDenied):
		httputil.WriteForbidden(w, "your identity is not part of the organization controlling this instance")
	case errors.As(err, &rejection):
		httputil.WriteUnauthorized(w, rejection.Error())
	default:
		httputil.WriteUnauthorized(w, ims.ErrAuthenticationFailed.Error())
	}
}

// countTokenExchange records a token exchange outcome
func (s *Server) countTokenExchange(result string) {
	if s.metrics != nil {
		s.metrics.TokenExchangesTotal.WithLabelValues(result).Inc()
	}
}
