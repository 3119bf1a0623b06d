package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gatehouse-io/gatehouse/pkg/contextkeys"
	"github.com/gatehouse-io/gatehouse/pkg/httputil"
	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/session"
)

// SessionMiddleware resolves the session cookie and attaches the session data
// and an unresolved user context to the request context. Requests without a
// valid session pass through with an empty view; enforcement happens in
// RequireSession.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		data := s.sessionFromRequest(r)
		if data != nil {
			ctx = contextkeys.WithSession(ctx, data)
		}

		userCtx := ims.NewUserContext(s.imsConfig, sessionView{data: data}, s.connection, redirectLoginProcessor{})
		ctx = contextkeys.WithUserContext(ctx, userCtx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession enforces an authenticated admin session. With the
// integration disabled it is a no-op so the host's native authentication can
// take over. An absent session redirects into the login flow; an invalid
// token gets a 401.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userCtx, ok := ctx.Value(contextkeys.UserContextKey).(*ims.UserContext)
		if !ok {
			httputil.WriteUnauthorized(w, "no session context")
			return
		}

		userID, err := userCtx.UserID(ctx)
		if err != nil {
			if errors.Is(err, ErrLoginRequired) {
				http.Redirect(w, r, "/auth/ims/login", http.StatusFound)
				return
			}
			if errors.Is(err, ims.ErrAuthenticationFailed) {
				s.clearSessionCookie(w)
				httputil.WriteUnauthorized(w, ims.ErrAuthenticationFailed.Error())
				return
			}
			httputil.WriteInternalError(w, err)
			return
		}

		if s.imsConfig.Enabled(ctx) && userID == 0 {
			http.Redirect(w, r, "/auth/ims/login", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionFromRequest loads the session referenced by the request cookie.
// Expired or missing sessions resolve to nil.
func (s *Server) sessionFromRequest(r *http.Request) *session.Data {
	cookie, err := r.Cookie(s.sessionSettings.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	data, err := s.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.logger.WithError(err).Error("failed to load session")
		}
		return nil
	}
	if data.Expired(time.Now()) {
		return nil
	}
	return data
}

// setSessionCookie issues the session cookie for data
func (s *Server) setSessionCookie(w http.ResponseWriter, data *session.Data) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.sessionSettings.CookieName,
		Value:    data.ID,
		Path:     "/",
		Domain:   s.sessionSettings.CookieDomain,
		Expires:  data.ExpiresAt,
		HttpOnly: true,
		Secure:   s.sessionSettings.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.sessionSettings.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.sessionSettings.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.sessionSettings.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
