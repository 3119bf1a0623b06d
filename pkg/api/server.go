package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gatehouse-io/gatehouse/pkg/httputil"
	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/observability"
	"github.com/gatehouse-io/gatehouse/pkg/session"
	"github.com/gatehouse-io/gatehouse/pkg/users"
)

// SessionSettings controls how the server issues and reads session cookies.
type SessionSettings struct {
	CookieName   string
	CookieDomain string
	CookieSecure bool
	Lifetime     time.Duration
}

// Server wires the identity provider integration behind an HTTP surface:
// the login and callback flow, remote logout, and the admin endpoints that
// enable, disable and test the integration.
type Server struct {
	router *mux.Router

	imsConfig   *ims.Config
	connection  *ims.Connection
	exchanger   *ims.TokenExchanger
	orgs        *ims.OrganizationService
	sessions    session.Store
	provisioner *users.Provisioner

	sessionSettings SessionSettings

	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewServer creates a Server and registers all routes.
func NewServer(
	imsConfig *ims.Config,
	connection *ims.Connection,
	exchanger *ims.TokenExchanger,
	orgs *ims.OrganizationService,
	sessions session.Store,
	provisioner *users.Provisioner,
	sessionSettings SessionSettings,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		router:          mux.NewRouter(),
		imsConfig:       imsConfig,
		connection:      connection,
		exchanger:       exchanger,
		orgs:            orgs,
		sessions:        sessions,
		provisioner:     provisioner,
		sessionSettings: sessionSettings,
		logger:          logger,
		metrics:         metrics,
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	// Identity provider login flow
	s.router.HandleFunc("/auth/ims/login", s.handleLogin).Methods("GET")
	s.router.HandleFunc("/auth/ims/callback", s.handleCallback).Methods("GET")
	s.router.HandleFunc("/auth/ims/logout", s.handleLogout).Methods("POST")

	// Native authentication guard
	s.router.HandleFunc("/auth/login", s.handleNativeLogin).Methods("POST")
	s.router.HandleFunc("/auth/forgot-password", s.handleForgotPassword).Methods("GET", "POST")

	// Session introspection
	s.router.Handle("/auth/me", s.RequireSession(http.HandlerFunc(s.handleWhoAmI))).Methods("GET")

	// Integration administration. RequireSession is a no-op while the
	// integration is disabled, so enable stays reachable for bootstrap; once
	// enabled, lifecycle changes need an authenticated admin session. The
	// deployment is still expected to keep this surface behind the host's own
	// admin authentication or a private bind.
	s.router.Handle("/admin/ims/enable", s.RequireSession(http.HandlerFunc(s.handleEnable))).Methods("POST")
	s.router.Handle("/admin/ims/disable", s.RequireSession(http.HandlerFunc(s.handleDisable))).Methods("POST")
	s.router.Handle("/admin/ims/status", s.RequireSession(http.HandlerFunc(s.handleStatus))).Methods("GET")
	s.router.Handle("/admin/ims/test", s.RequireSession(http.HandlerFunc(s.handleTestConnection))).Methods("GET")
}

// Handler returns the fully wrapped HTTP handler for the server
func (s *Server) Handler() http.Handler {
	handler := httputil.Chain(
		s.router,
		httputil.RecoveryMiddleware(s.logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		s.SessionMiddleware,
	)
	if s.metrics != nil {
		handler = observability.HTTPMetricsMiddleware(s.metrics)(handler)
	}
	return handler
}

// Router exposes the raw router for tests
func (s *Server) Router() *mux.Router {
	return s.router
}
