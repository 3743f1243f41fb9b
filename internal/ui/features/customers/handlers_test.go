package customers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cache"
	"github.com/leapstack-labs/salesdesk/internal/catalog"
	"github.com/leapstack-labs/salesdesk/internal/ui/features"
	"github.com/leapstack-labs/salesdesk/internal/ui/features/common"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	return NewHandlers(fixture.Registry, true), fixture
}

func post(t *testing.T, handler http.HandlerFunc, req *http.Request) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec.Body.String()
}

func TestCustomersPage_BeforeSync(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.CustomersPage(rec, httptest.NewRequest(http.MethodGet, "/customers", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Customers - SalesDesk</title>")
	assert.Contains(t, body, "/updates?tab=customers")
	assert.Contains(t, body, "No customers loaded. Click 'Sync from CRM' to fetch data.")
	assert.Equal(t, 0, fixture.Backend.Calls("/customers"), "the table loads only on sync")
}

func TestSync(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	ws, cookie := fixture.Workspace()
	fixture.Cache.Merge(context.Background(), 2, cache.Entry{
		Analysis:        &api.Analysis{CustomerID: 2},
		Recommendations: &api.Recommendations{Recommendations: []api.Recommendation{{ProductID: 10}}},
		Email:           &api.Email{Subject: "s", Body: "b"},
	})

	body := post(t, h.Sync, features.NewRequest(t, http.MethodPost, "/api/customers/sync", cookie, nil))

	assert.Contains(t, body, "Company Name")
	assert.Contains(t, body, "Acme")
	assert.Contains(t, body, "Beta")
	assert.Equal(t, 1, strings.Count(body, "✅"), "only the cached customer is ready")
	assert.Len(t, ws.Picker(), 2, "sync also fills the dropdown")
}

func TestSync_Failure(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	_, cookie := fixture.Workspace()
	fixture.Backend.SetFail("/customers", http.StatusBadGateway)

	body := post(t, h.Sync, features.NewRequest(t, http.MethodPost, "/api/customers/sync", cookie, nil))

	assert.Contains(t, body, "Failed to load customers")
	assert.Contains(t, body, "Sync from CRM")
}

func TestSort(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	ws, cookie := fixture.Workspace()
	require.NoError(t, ws.SyncCustomers(context.Background()))

	sortBy := func(column string) {
		req := features.NewRequest(t, http.MethodPost, "/api/customers/sort/"+column, cookie, nil)
		post(t, h.Sort, features.RequestWithPathParam(req, "column", column))
	}

	// Default is company ascending; clicking it again flips the direction.
	sortBy(catalog.ColCompany)
	rows := ws.Customers(context.Background()).Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Beta", rows[0].Company)

	sortBy(catalog.ColIndustry)
	rows = ws.Customers(context.Background()).Rows
	assert.Equal(t, "Acme", rows[0].Company, "Retail sorts before Tech")
}

func TestSearch(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	ws, cookie := fixture.Workspace()
	require.NoError(t, ws.SyncCustomers(context.Background()))

	body := post(t, h.Search, features.NewRequest(t, http.MethodPost, "/api/customers/search", cookie, common.Signals{Search: "tech"}))
	assert.Equal(t, 1, strings.Count(body, `class="crm-row"`))
	assert.Contains(t, body, "Beta")

	body = post(t, h.Search, features.NewRequest(t, http.MethodPost, "/api/customers/search", cookie, common.Signals{Search: "nothing matches"}))
	assert.Contains(t, body, "No customers match your search.")
}
