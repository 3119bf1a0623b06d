package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/session"
)

func TestRequireSession(t *testing.T) {
	t.Run("disabled integration passes through", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no session redirects to login", func(t *testing.T) {
		f := newFixture(t)
		f.enable(t, "org-1")

		rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth/ims/login", rec.Header().Get("Location"))
	})

	t.Run("expired session redirects to login", func(t *testing.T) {
		f := newFixture(t)
		f.enable(t, "org-1")
		expired := &session.Data{
			ID:          "sess-old",
			UserID:      7,
			Email:       "alice@example.com",
			AccessToken: "at-old",
			CreatedAt:   time.Now().Add(-2 * time.Hour),
			ExpiresAt:   time.Now().Add(-time.Hour),
		}
		require.NoError(t, f.sessions.Put(context.Background(), expired))

		req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "sess-old")
		rec := f.do(req)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth/ims/login", rec.Header().Get("Location"))
	})

	t.Run("valid session passes", func(t *testing.T) {
		f := newFixture(t)
		f.enable(t, "org-1")
		f.putSession(t, "sess-1", "at-1")

		req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "sess-1")
		rec := f.do(req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token clears cookie and rejects", func(t *testing.T) {
		f := newFixture(t)
		f.enable(t, "org-1")
		f.idp.validateBody = `{"valid":false}`
		f.putSession(t, "sess-1", "at-1")

		req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "sess-1")
		rec := f.do(req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "gatehouse_session", cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})

	t.Run("unknown cookie redirects to login", func(t *testing.T) {
		f := newFixture(t)
		f.enable(t, "org-1")

		req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "no-such-session")
		rec := f.do(req)
		assert.Equal(t, http.StatusFound, rec.Code)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/ims/status", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/admin/ims/status", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
