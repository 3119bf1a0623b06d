package api

import (
	"errors"
	"net/http"

	"github.com/gatehouse-io/gatehouse/pkg/httputil"
	"github.com/gatehouse-io/gatehouse/pkg/ims"
)

// handleEnable handles POST /admin/ims/enable
//
// Credentials are verified against the identity provider before anything is
// persisted; a failed probe leaves the stored configuration untouched.
func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ClientID       string `json:"client_id"`
		ClientSecret   string `json:"client_secret"`
		OrganizationID string `json:"organization_id"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.ClientID == "" {
		httputil.WriteBadRequest(w, "client_id is required")
		return
	}
	if req.OrganizationID == "" {
		httputil.WriteBadRequest(w, "organization_id is required")
		return
	}

	ok, err := s.connection.TestConnection(ctx, req.ClientID)
	if err != nil {
		s.writeConnectionError(w, err)
		return
	}
	if !ok {
		httputil.WriteBadRequest(w, "identity provider returned no authorization redirect")
		return
	}

	if err := s.imsConfig.EnableModule(ctx, req.ClientID, req.ClientSecret, req.OrganizationID); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	s.logger.Info("identity provider integration enabled")
	httputil.WriteSuccess(w, map[string]bool{"enabled": true})
}

// handleDisable handles POST /admin/ims/disable
//
// Disabling deletes the stored credentials outright; re-enabling requires a
// full set again.
func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.imsConfig.DisableModule(ctx); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	s.logger.Info("identity provider integration disabled")
	httputil.WriteSuccess(w, map[string]bool{"enabled": false})
}

// handleStatus handles GET /admin/ims/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	httputil.WriteSuccess(w, map[string]interface{}{
		"enabled":             s.imsConfig.Enabled(ctx),
		"client_id_set":       s.imsConfig.ClientID(ctx) != "",
		"organization_id_set": s.imsConfig.OrganizationID(ctx) != "",
		"strict_membership":   s.imsConfig.StrictMembership(ctx),
	})
}

// handleTestConnection handles GET /admin/ims/test
//
// Probes the authorization endpoint with the given client id, or the stored
// one when the query parameter is absent.
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := httputil.ParseQueryString(r, "client_id", "")

	ok, err := s.connection.TestConnection(ctx, clientID)
	if err != nil {
		s.writeConnectionError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]bool{"ok": ok})
}

// writeConnectionError maps an authorization-probe error to its HTTP
// response.
func (s *Server) writeConnectionError(w http.ResponseWriter, err error) {
	var rejection *ims.IdpRejectionError
	switch {
	case errors.As(err, &rejection):
		httputil.WriteBadRequest(w, rejection.Error())
	case errors.Is(err, ims.ErrInvalidConfiguration):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteErrorMessage(w, http.StatusBadGateway, "identity provider is unreachable")
	}
}
