package components

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/api/apitest"
	"github.com/leapstack-labs/salesdesk/internal/catalog"
	"github.com/leapstack-labs/salesdesk/internal/notify"
	"github.com/leapstack-labs/salesdesk/internal/session"
	"github.com/leapstack-labs/salesdesk/internal/table"
)

func renderApp(t *testing.T, a AppData) (string, *html.Node) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, App(a).Render(context.Background(), &buf))
	doc, err := html.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return buf.String(), doc
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func countTag(n *html.Node, tag string) int {
	count := 0
	if n.Type == html.ElementNode && n.Data == tag {
		count++
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countTag(c, tag)
	}
	return count
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func pendingStages() []session.StageView {
	var out []session.StageView
	for _, s := range session.Stages() {
		out = append(out, session.StageView{Stage: s, Status: session.Pending})
	}
	return out
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	err := Page(PageData{Title: "AI Analysis", App: AppData{Tab: TabProducts}}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>AI Analysis - SalesDesk</title>")
	assert.Contains(t, out, DatastarScript)
	assert.Contains(t, out, "@get('/updates?tab=products')")
	assert.Contains(t, out, `id="app"`)
}

func TestApp_EmptyAnalysis(t *testing.T) {
	out, doc := renderApp(t, AppData{
		Tab:     TabAnalysis,
		Session: session.View{Stages: pendingStages()},
		Picker: []Option{
			{ID: 1, Label: "Acme - Retail"},
			{ID: 2, Label: "Beta - Tech"},
		},
	})

	assert.Contains(t, out, "Select a customer to begin")
	assert.Contains(t, out, "API Disconnected")
	assert.Contains(t, out, "Choose customer...")
	assert.Nil(t, findByID(doc, "quick-stats"))
	assert.Nil(t, findByID(doc, "email-text"))

	sel := findByID(doc, "customer-select")
	require.NotNil(t, sel)
	assert.Equal(t, 3, countTag(sel, "option"))

	status := findByID(doc, "pipeline-status")
	require.NotNil(t, status)
	assert.Equal(t, 5, countTag(status, "li"))
	assert.Contains(t, out, "Product Matching")

	run := findByID(doc, "run-analysis")
	require.NotNil(t, run)
	assert.False(t, hasAttr(run, "disabled"))
}

func TestApp_FullAnalysis(t *testing.T) {
	customer := apitest.Customer(1, "Acme", "Retail")
	stages := pendingStages()
	stages[1].Status = session.Processing

	recs := &api.Recommendations{}
	for i := range 7 {
		recs.Recommendations = append(recs.Recommendations, api.Recommendation{
			ProductID: i + 1, Name: "Product", Category: "Bags", PriceRange: "$1-$2", MatchScore: 0.9,
		})
	}
	email := &api.Email{Subject: "Hello", Body: "Body text", PersonalizationScore: 0.66}

	out, doc := renderApp(t, AppData{
		Tab:        TabAnalysis,
		Connection: api.Connection{Connected: true},
		Session: session.View{
			CustomerID: 1,
			Customer:   &customer,
			Analysis: &api.Analysis{
				Analysis:        map[string]any{"company_profile": "Growing team"},
				PainPoints:      []string{"cost", "speed"},
				ConfidenceScore: 0.87,
			},
			Recommendations: recs,
			Email:           email,
			Stages:          stages,
			Stats:           session.QuickStats{Visible: true, Confidence: 87, ResponseRate: 35, Personalization: 66},
		},
		EmailText: email.Text(),
		Picker:    []Option{{ID: 1, Label: "Acme - Retail", Selected: true}},
		Mockups: MockupItems(&api.Mockup{
			MockupImages: []string{"data:image/png;base64,AAAA", "javascript:alert(1)"},
		}),
	})

	assert.Contains(t, out, "API Connected")
	assert.Contains(t, out, "Growing team")
	assert.Contains(t, out, "cost, speed")
	assert.Contains(t, out, "Analysis not available", "decision factors fall back")
	assert.Contains(t, out, "Bags • $1-$2")
	assert.Contains(t, out, "90%")
	assert.Contains(t, out, "Main mockup")

	stats := findByID(doc, "quick-stats")
	require.NotNil(t, stats)
	assert.Equal(t, "87%", findByID(doc, "confidence-score").FirstChild.Data)
	assert.Equal(t, "35%", findByID(doc, "response-rate").FirstChild.Data)

	recsNode := findByID(doc, "recommendations")
	require.NotNil(t, recsNode)
	assert.Equal(t, 5, strings.Count(out, `class="recommendation-item"`))

	pre := findByID(doc, "email-text")
	require.NotNil(t, pre)
	assert.Equal(t, "Subject: Hello\n\nBody text", pre.FirstChild.Data)

	gallery := findByID(doc, "mockups")
	require.NotNil(t, gallery)
	assert.Equal(t, 1, countTag(gallery, "img"))

	for _, id := range []string{"run-analysis", "run-recommendations", "run-email", "run-mockups", "run-all"} {
		btn := findByID(doc, id)
		require.NotNil(t, btn, id)
		assert.True(t, hasAttr(btn, "disabled"), "%s disabled while a stage runs", id)
	}
}

func TestApp_Customers(t *testing.T) {
	tests := []struct {
		name    string
		table   *catalog.CustomerTable
		want    []string
		rows    int
		noTable bool
	}{
		{
			name:    "not loaded",
			table:   &catalog.CustomerTable{State: table.StateNotLoaded},
			want:    []string{"Sync from CRM", "No customers loaded. Click 'Sync from CRM' to fetch data."},
			noTable: true,
		},
		{
			name:    "empty",
			table:   &catalog.CustomerTable{State: table.StateEmpty},
			want:    []string{"No customers found."},
			noTable: true,
		},
		{
			name: "no results",
			table: &catalog.CustomerTable{
				State:   table.StateNoResults,
				Headers: []table.Header{{Key: catalog.ColCompany, Label: "Company Name", Indicator: "▲", Active: true}},
				Search:  "zzz",
			},
			want: []string{"No customers match your search.", "Company Name"},
		},
		{
			name: "ready",
			table: &catalog.CustomerTable{
				State:   table.StateReady,
				Headers: []table.Header{{Key: catalog.ColCompany, Label: "Company Name", Indicator: "▲", Active: true}},
				Rows: []catalog.CustomerRow{
					{ID: 1, Company: "Acme", PainPoints: []string{"a", "b"}, Ready: true},
					{ID: 2, Company: "Beta"},
				},
			},
			want: []string{"Acme", "a<br>b", "✅", "—", "▲"},
			rows: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, doc := renderApp(t, AppData{Tab: TabCustomers, Customers: tt.table})
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			if tt.noTable {
				assert.Equal(t, 0, countTag(doc, "table"))
				return
			}
			assert.Equal(t, tt.rows, strings.Count(out, `class="crm-row"`))
		})
	}
}

func TestApp_Products(t *testing.T) {
	out, doc := renderApp(t, AppData{
		Tab: TabProducts,
		Products: &catalog.ProductGridView{
			State:      table.StateReady,
			Category:   "Bags",
			Categories: []string{"Bags", "Stationery"},
			Cards: []catalog.ProductCard{
				{ID: 10, Name: "Tote", Category: "Bags", Color: "#4F8EF7", Added: true},
				{ID: 11, Name: "Backpack", Category: "Bags", Color: "#4F8EF7"},
			},
		},
	})

	assert.Contains(t, out, "All Categories")
	assert.Contains(t, out, `<option value="Bags" selected>Bags</option>`)
	assert.Equal(t, 1, strings.Count(out, ">Added</button>"))
	assert.Equal(t, 1, strings.Count(out, "Add to Recommendations"))
	assert.Contains(t, out, "/api/products/11/add")
	assert.Equal(t, 2, countTag(doc, "svg"))
}

func TestApp_Toasts(t *testing.T) {
	board := notify.NewBoard(0, nil)
	board.Notify(notify.Error, "Analysis failed")

	out, doc := renderApp(t, AppData{Tab: TabAnalysis, Toasts: board.Active()})
	toasts := findByID(doc, "toasts")
	require.NotNil(t, toasts)
	assert.Equal(t, 1, countTag(toasts, "h4"))
	assert.Contains(t, out, "Analysis failed")
	assert.Contains(t, out, `class="notification error"`)
}

func TestMockupItems(t *testing.T) {
	assert.Nil(t, MockupItems(nil))

	items := MockupItems(&api.Mockup{
		MockupImages: []string{"https://cdn.example.com/a.png", "ftp://x", "data:image/svg+xml;base64,PHN2Zz4="},
		Variations:   []api.Variation{{Type: "front", Description: "Front view"}},
	})
	require.Len(t, items, 2)
	assert.Equal(t, "front", items[0].Type)
	assert.Equal(t, "Mockup 1", items[0].Alt)
	assert.Equal(t, "main", items[1].Type)
	assert.Equal(t, "Mockup 3", items[1].Alt)
}

func TestTabPath(t *testing.T) {
	assert.Equal(t, "/", TabPath(TabAnalysis))
	assert.Equal(t, "/customers", TabPath(TabCustomers))
	assert.Equal(t, "/products", TabPath(TabProducts))
	assert.Equal(t, "/", TabPath("unknown"))
}

func TestPickerOptions(t *testing.T) {
	opts := PickerOptions([]api.Customer{
		apitest.Customer(1, "Acme", "Retail"),
		apitest.Customer(2, "Beta", "Tech"),
	}, 2)
	require.Len(t, opts, 2)
	assert.Equal(t, Option{ID: 1, Label: "Acme - Retail"}, opts[0])
	assert.True(t, opts[1].Selected)
}

func TestAppData_TopRecommendations(t *testing.T) {
	assert.Nil(t, AppData{}.TopRecommendations())

	recs := &api.Recommendations{Recommendations: make([]api.Recommendation, 3)}
	assert.Len(t, AppData{Session: session.View{Recommendations: recs}}.TopRecommendations(), 3)
}
