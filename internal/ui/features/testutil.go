// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/api/apitest"
	"github.com/leapstack-labs/salesdesk/internal/cache"
	"github.com/leapstack-labs/salesdesk/internal/state"
	"github.com/leapstack-labs/salesdesk/internal/testutil"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Backend  *apitest.Backend
	Client   *api.Client
	Cache    *cache.Store
	Registry *workspace.Registry

	t *testing.T
}

// SetupTestFixture starts a fake backend with two customers and two
// products and builds a registry on top of it.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	backend := &apitest.Backend{
		Customers: []api.Customer{
			apitest.Customer(1, "Acme", "Retail"),
			apitest.Customer(2, "Beta", "Tech"),
		},
		Products: []api.Product{
			apitest.Product(10, "Notebook", "Stationery"),
			apitest.Product(11, "Tote", "Bags"),
		},
	}
	_, client := apitest.NewServer(t, backend)
	c := cache.New(state.NewMemoryStore(), logger)

	return &TestFixture{
		Backend: backend,
		Client:  client,
		Cache:   c,
		Registry: workspace.NewRegistry(workspace.Config{
			Backend:  client,
			Cache:    c,
			Sessions: NewTestSessionStore(),
			Logger:   logger,
		}),
		t: t,
	}
}

// Workspace creates a workspace and returns it with the cookie that
// resolves to it.
func (f *TestFixture) Workspace() (*workspace.Workspace, *http.Cookie) {
	f.t.Helper()

	rec := httptest.NewRecorder()
	ws, err := f.Registry.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(f.t, err)

	cookies := rec.Result().Cookies()
	require.NotEmpty(f.t, cookies)
	return ws, cookies[0]
}

// NewRequest builds a request carrying cookie. A non-nil signals value is
// sent as the JSON body the way datastar posts signals.
func NewRequest(t *testing.T, method, target string, cookie *http.Cookie, signals any) *http.Request {
	t.Helper()

	var body io.Reader
	if signals != nil {
		b, err := json.Marshal(signals)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	if signals != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout. The context
// is canceled when the test ends.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
