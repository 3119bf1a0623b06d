package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/configstore"
	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/observability"
	"github.com/gatehouse-io/gatehouse/pkg/session"
	"github.com/gatehouse-io/gatehouse/pkg/users"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// idpServer scripts the identity provider endpoints hit by the handlers.
type idpServer struct {
	mu sync.Mutex

	authStatus   int
	authLocation string

	tokenStatus int
	tokenBody   string

	profileStatus int
	profileBody   string

	validateBody string

	logoutStatus int

	profileCalls int
}

func newIdpServer() *idpServer {
	return &idpServer{
		authStatus:    http.StatusFound,
		authLocation:  "https://idp.example.com/login",
		tokenStatus:   http.StatusOK,
		tokenBody:     `{"access_token":"at-1","refresh_token":"rt-1","token_type":"bearer","expires_in":3600}`,
		profileStatus: http.StatusOK,
		profileBody:   `{"email":"alice@example.com","name":"Alice","organizations":["org-1"]}`,
		validateBody:  `{"valid":true}`,
		logoutStatus:  http.StatusOK,
	}
}

func (i *idpServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i.mu.Lock()
		defer i.mu.Unlock()
		switch r.URL.Path {
		case "/authorize":
			if i.authLocation != "" {
				w.Header().Set("Location", i.authLocation)
			}
			w.WriteHeader(i.authStatus)
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(i.tokenStatus)
			w.Write([]byte(i.tokenBody))
		case "/profile":
			i.profileCalls++
			w.WriteHeader(i.profileStatus)
			if i.profileStatus == http.StatusOK {
				w.Write([]byte(i.profileBody))
			}
		case "/validate":
			w.Write([]byte(i.validateBody))
		case "/logout":
			w.WriteHeader(i.logoutStatus)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// fixture bundles the server under test with its collaborators.
type fixture struct {
	server   *Server
	handler  http.Handler
	idp      *idpServer
	imsCfg   *ims.Config
	store    *configstore.MemoryStore
	sessions *session.MemoryStore
	mock     sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	idp := newIdpServer()
	ts := httptest.NewServer(idp.handler())
	t.Cleanup(ts.Close)

	store := configstore.NewMemoryStore()
	encryptor, err := configstore.NewAESEncryptor(testKey)
	require.NoError(t, err)

	imsCfg := ims.NewConfig(store, encryptor, "https://admin.example.com/auth/ims/callback", ims.Defaults{
		AuthURLPattern:     ts.URL + "/authorize?client_id=#{client_id}&redirect_uri=#{redirect_uri}",
		TokenURL:           ts.URL + "/token",
		ProfileURLPattern:  ts.URL + "/profile",
		ValidateURLPattern: ts.URL + "/validate?client_id=#{client_id}",
		LogoutURLPattern:   ts.URL + "/logout?access_token=#{access_token}",
		Locale:             "en_US",
	})

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	connection := ims.NewConnection(imsCfg, 5*time.Second, logger)
	exchanger := ims.NewTokenExchanger(imsCfg, 5*time.Second)
	orgs := ims.NewOrganizationService(imsCfg)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	provisioner := users.NewProvisioner(users.NewStore(db, "sqlite3"), &users.LogNotifier{Logger: logger}, logger)

	sessions := session.NewMemoryStore()

	server := NewServer(imsCfg, connection, exchanger, orgs, sessions, provisioner, SessionSettings{
		CookieName: "gatehouse_session",
		Lifetime:   time.Hour,
	}, logger, nil)

	return &fixture{
		server:   server,
		handler:  server.Handler(),
		idp:      idp,
		imsCfg:   imsCfg,
		store:    store,
		sessions: sessions,
		mock:     mock,
	}
}

// enable turns the integration on with the given organization id.
func (f *fixture) enable(t *testing.T, organizationID string) {
	t.Helper()
	require.NoError(t, f.imsCfg.EnableModule(context.Background(), "client-1", "secret-1", organizationID))
}

// expectProvision sets the database expectations for a first login of
// alice@example.com.
func (f *fixture) expectProvision() {
	f.mock.ExpectQuery("SELECT (.+) FROM admin_users WHERE email").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "full_name", "is_active",
			"created_at", "updated_at", "last_login_at",
		}))
	f.mock.ExpectQuery("INSERT INTO admin_users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
}

// putSession stores an active session and returns it.
func (f *fixture) putSession(t *testing.T, id, token string) *session.Data {
	t.Helper()
	data := &session.Data{
		ID:          id,
		UserID:      7,
		Email:       "alice@example.com",
		AccessToken: token,
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, f.sessions.Put(context.Background(), data))
	return data
}

// userRowsInactive returns a result set with a deactivated alice.
func userRowsInactive() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "full_name", "is_active",
		"created_at", "updated_at", "last_login_at",
	}).AddRow(int64(7), "alice", "alice@example.com", "Alice", false, now, now, nil)
}

// do runs a request through the full middleware chain.
func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func withSessionCookie(req *http.Request, id string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "gatehouse_session", Value: id})
	return req
}
