package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/api/apitest"
)

func newBackend() *apitest.Backend {
	return &apitest.Backend{
		Customers: []api.Customer{
			apitest.Customer(1, "Acme", "Retail"),
			apitest.Customer(2, "Beta", "Tech"),
		},
		Products: []api.Product{
			apitest.Product(10, "Notebook", "Stationery"),
			apitest.Product(11, "Tote", "Bags"),
		},
	}
}

func TestClient_NamedCalls(t *testing.T) {
	backend := newBackend()
	_, client := apitest.NewServer(t, backend)
	ctx := context.Background()

	customers, err := client.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Acme", customers[0].Company.Name)

	customer, err := client.GetCustomer(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Beta - Tech", customer.DisplayName())

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	product, err := client.GetProduct(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "logo_placement"}, product.CustomizationKeys())

	templates, err := client.ListEmailTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 1)

	analysis, err := client.AnalyzeCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 85, api.Percent(analysis.ConfidenceScore))
	assert.Equal(t, "Growing team", analysis.Detail("company_profile"))

	recs, err := client.RecommendProducts(ctx, api.RecommendRequest{CustomerID: 1})
	require.NoError(t, err)
	first, ok := recs.First()
	require.True(t, ok)
	assert.Equal(t, 10, first.ProductID)

	email, err := client.GenerateEmail(ctx, api.EmailRequest{CustomerID: 1, ProductIDs: []int{10}, EmailStyle: "consultative"})
	require.NoError(t, err)
	assert.Equal(t, "consultative", email.Style)
	assert.Equal(t, "Subject: Ideas for your team\n\nHello there", email.Text())

	mockup, err := client.CreateMockup(ctx, api.MockupRequest{CustomerID: 1, ProductID: 10, CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme front", mockup.Variation(0).Description)
	assert.Equal(t, "main", mockup.Variation(5).Type)
}

func TestClient_SendsJSONAndHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"customer_id": 7, "subject": "s", "body": "b"}`))
	}))
	defer srv.Close()

	client := api.New(api.Options{
		BaseURL: srv.URL + "/",
		Headers: map[string]string{"X-Operator": "ops-1"},
	})

	_, err := client.GenerateEmail(context.Background(), api.EmailRequest{
		CustomerID: 7,
		ProductIDs: []int{3},
		EmailStyle: "formal",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "ops-1", gotHeaders.Get("X-Operator"))
	assert.NotEmpty(t, gotHeaders.Get("X-Request-Id"))
	assert.Equal(t, float64(7), gotBody["customer_id"])
	assert.Equal(t, "formal", gotBody["email_style"])
	assert.NotContains(t, gotBody, "template_id", "optional fields are omitted")
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantMsg    string
	}{
		{
			name: "fastapi detail",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"detail": "Customer not found"}`))
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Customer not found",
		},
		{
			name: "error envelope",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error": "boom", "message": "Analysis failed"}`))
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Analysis failed",
		},
		{
			name: "non-json body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`upstream down`))
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "malformed success body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := api.New(api.Options{BaseURL: srv.URL})
			_, err := client.GetCustomer(context.Background(), 99)
			require.Error(t, err)

			var apiErr *api.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, http.MethodGet, apiErr.Method)
			assert.Equal(t, "/customers/99", apiErr.Path)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := api.New(api.Options{BaseURL: url})
	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, api.StatusOf(err))
	assert.Contains(t, err.Error(), "api request failed: GET /products")
}

func TestClient_TestConnection(t *testing.T) {
	backend := newBackend()
	_, client := apitest.NewServer(t, backend)

	conn := client.TestConnection(context.Background())
	assert.True(t, conn.Connected)
	assert.Equal(t, "healthy", conn.Status)
	assert.Equal(t, "1.0.0", conn.Version)

	backend.SetFail("/health", http.StatusServiceUnavailable)
	conn = client.TestConnection(context.Background())
	assert.False(t, conn.Connected)
	assert.Contains(t, conn.Error, "503")
}

func TestIsNotFound(t *testing.T) {
	backend := newBackend()
	_, client := apitest.NewServer(t, backend)

	_, err := client.GetCustomer(context.Background(), 404)
	assert.True(t, api.IsNotFound(err))
	assert.False(t, api.IsNotFound(errors.New("other")))
}

func TestAnalysis_Detail(t *testing.T) {
	a := &api.Analysis{Analysis: map[string]any{
		"profile": "text",
		"factors": []any{"price", "speed"},
		"nested":  map[string]any{"k": "v"},
		"score":   3.5,
	}}

	assert.Equal(t, "text", a.Detail("profile"))
	assert.Equal(t, "price, speed", a.Detail("factors"))
	assert.Equal(t, `{"k":"v"}`, a.Detail("nested"))
	assert.Equal(t, "3.5", a.Detail("score"))
	assert.Equal(t, "", a.Detail("missing"))

	var nilAnalysis *api.Analysis
	assert.Equal(t, "", nilAnalysis.Detail("profile"))
}
