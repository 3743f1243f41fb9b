// Package apitest provides an in-process fake of the sales agent backend.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/testutil"
)

// Backend is a scripted backend. Zero-value fields fall back to canned
// responses derived from the customer and product fixtures.
type Backend struct {
	mu sync.Mutex

	Customers []api.Customer
	Products  []api.Product

	// Fail maps a route path ("/analyze-customer", "/customers") to an
	// HTTP status the fake responds with instead of succeeding.
	Fail map[string]int

	calls map[string]int
}

// Customer returns a customer fixture with the given identity.
func Customer(id int, name, industry string) api.Customer {
	return api.Customer{
		ID: id,
		Company: api.Company{
			Name:     name,
			Industry: industry,
			Size:     "50-200",
			Location: "Austin, TX",
		},
		BehavioralData: api.BehavioralData{
			RecentActivities: []string{"Visited pricing page"},
			PainPoints:       []string{"brand visibility"},
			BudgetRange:      "$5k-$10k",
		},
	}
}

// Product returns a product fixture.
func Product(id int, name, category string) api.Product {
	return api.Product{
		ID:         id,
		Name:       name,
		Category:   category,
		PriceRange: "$10-$20",
		CustomizationOptions: map[string][]string{
			"logo_placement": {"front"},
			"colors":         {"blue"},
		},
		TargetAudience: api.TargetAudience{Industries: []string{"Tech"}},
		MinimumOrder:   50,
	}
}

// Calls returns how many times path was hit.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// SetFail makes path answer with status (0 clears it).
func (b *Backend) SetFail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail == nil {
		b.Fail = map[string]int{}
	}
	if status == 0 {
		delete(b.Fail, path)
		return
	}
	b.Fail[path] = status
}

// Handler returns the backend's HTTP routes, mounted under /api.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", b.wrap("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, api.Health{Status: "healthy", Service: "AI Sales Agent", Version: "1.0.0"})
		}))
		r.Get("/customers", b.wrap("/customers", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, b.Customers)
		}))
		r.Get("/customers/{id}", b.wrap("/customers/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "id"))
			for _, c := range b.Customers {
				if c.ID == id {
					writeJSON(w, c)
					return
				}
			}
			writeStatus(w, http.StatusNotFound, "Customer not found")
		}))
		r.Get("/products", b.wrap("/products", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, b.Products)
		}))
		r.Get("/products/{id}", b.wrap("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "id"))
			for _, p := range b.Products {
				if p.ID == id {
					writeJSON(w, p)
					return
				}
			}
			writeStatus(w, http.StatusNotFound, "Product not found")
		}))
		r.Get("/email-templates", b.wrap("/email-templates", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, []api.EmailTemplate{{ID: 1, Name: "Intro", Style: "consultative"}})
		}))
		r.Post("/analyze-customer", b.wrap("/analyze-customer", func(w http.ResponseWriter, r *http.Request) {
			var req api.AnalyzeRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, api.Analysis{
				CustomerID:      req.CustomerID,
				Analysis:        map[string]any{"company_profile": "Growing team", "decision_making_factors": "ROI"},
				PainPoints:      []string{"brand visibility"},
				Opportunities:   []string{"trade shows"},
				ConfidenceScore: 0.85,
			})
		}))
		r.Post("/recommend-products", b.wrap("/recommend-products", func(w http.ResponseWriter, r *http.Request) {
			var req api.RecommendRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			recs := make([]api.Recommendation, 0, len(b.Products))
			for _, p := range b.Products {
				recs = append(recs, api.Recommendation{
					ProductID:  p.ID,
					Name:       p.Name,
					Category:   p.Category,
					PriceRange: p.PriceRange,
					MatchScore: 0.9,
				})
			}
			out := api.Recommendations{CustomerID: req.CustomerID, Recommendations: recs}
			if len(recs) > 0 {
				out.TopRecommendation = &recs[0]
			}
			writeJSON(w, out)
		}))
		r.Post("/generate-email", b.wrap("/generate-email", func(w http.ResponseWriter, r *http.Request) {
			var req api.EmailRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, api.Email{
				CustomerID:           req.CustomerID,
				Subject:              "Ideas for your team",
				Body:                 "Hello there",
				Style:                req.EmailStyle,
				PersonalizationScore: 0.72,
			})
		}))
		r.Post("/create-mockup", b.wrap("/create-mockup", func(w http.ResponseWriter, r *http.Request) {
			var req api.MockupRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, api.Mockup{
				CustomerID:   req.CustomerID,
				ProductID:    req.ProductID,
				MockupImages: []string{"data:image/png;base64,AAAA"},
				Variations:   []api.Variation{{Type: "front", Description: req.CompanyName + " front"}},
			})
		}))
	})
	return r
}

func (b *Backend) wrap(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		if b.calls == nil {
			b.calls = map[string]int{}
		}
		b.calls[path]++
		status := b.Fail[path]
		b.mu.Unlock()

		if status != 0 {
			writeStatus(w, status, http.StatusText(status))
			return
		}
		h(w, r)
	}
}

// NewServer starts b on an httptest server and returns a client for it.
// The server is closed when the test ends.
func NewServer(t testing.TB, b *Backend) (*httptest.Server, *api.Client) {
	t.Helper()
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	client := api.New(api.Options{
		BaseURL: srv.URL + "/api",
		Logger:  testutil.NewTestLogger(t),
	})
	return srv, client
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
