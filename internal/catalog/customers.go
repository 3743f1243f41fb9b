// Package catalog defines the customer table and product grid on top of
// the generic table engine.
package catalog

import (
	"context"
	"strings"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cache"
	"github.com/leapstack-labs/salesdesk/internal/table"
)

// Customer table column keys.
const (
	ColCompany      = "company"
	ColIndustry     = "industry"
	ColSize         = "size"
	ColLocation     = "location"
	ColBudget       = "budget"
	ColPainPoints   = "pain_points"
	ColLastActivity = "last_activity"
	ColReady        = "reachout_ready"
)

// Readiness reports whether a customer's outreach material is complete.
type Readiness interface {
	IsComplete(id int) bool
}

// CustomerRow is one rendered row of the customer table.
type CustomerRow struct {
	ID           int      `json:"id"`
	Company      string   `json:"company"`
	Industry     string   `json:"industry"`
	Size         string   `json:"size"`
	Location     string   `json:"location"`
	Budget       string   `json:"budget"`
	PainPoints   []string `json:"pain_points"`
	LastActivity string   `json:"last_activity"`
	Ready        bool     `json:"reachout_ready"`
}

// CustomerTable is the rendered customer table.
type CustomerTable struct {
	Rows    []CustomerRow
	Headers []table.Header
	State   table.State
	Search  string
	Total   int
}

// CustomerGrid is the customer table state. The ready column is derived
// from a cache snapshot taken at the start of each Render.
type CustomerGrid struct {
	view  *table.View[api.Customer]
	cache *cache.Store
	ready Readiness
}

// NewCustomerGrid creates a customer grid sorted by company name. A nil
// cache marks every customer as not ready.
func NewCustomerGrid(c *cache.Store) *CustomerGrid {
	g := &CustomerGrid{cache: c}
	g.view = table.New(table.Config[api.Customer]{
		ID:      func(c api.Customer) int { return c.ID },
		Columns: g.columns(),
		SearchFields: []func(api.Customer) string{
			func(c api.Customer) string { return c.Company.Name },
			func(c api.Customer) string { return c.Company.Industry },
			func(c api.Customer) string { return c.Company.Size },
			func(c api.Customer) string { return c.Company.Location },
			func(c api.Customer) string { return c.BehavioralData.BudgetRange },
			func(c api.Customer) string { return strings.Join(c.BehavioralData.PainPoints, ",") },
		},
		DefaultSort: table.Sort{Column: ColCompany, Asc: true},
	})
	return g
}

func (g *CustomerGrid) columns() []table.Column[api.Customer] {
	text := func(key, label string, get func(api.Customer) string) table.Column[api.Customer] {
		return table.Column[api.Customer]{Key: key, Label: label, Value: func(c api.Customer) table.Value {
			return table.String(get(c))
		}}
	}
	return []table.Column[api.Customer]{
		text(ColCompany, "Company Name", func(c api.Customer) string { return c.Company.Name }),
		text(ColIndustry, "Industry", func(c api.Customer) string { return c.Company.Industry }),
		text(ColSize, "Size", func(c api.Customer) string { return c.Company.Size }),
		text(ColLocation, "Location", func(c api.Customer) string { return c.Company.Location }),
		text(ColBudget, "Budget", func(c api.Customer) string { return c.BehavioralData.BudgetRange }),
		text(ColPainPoints, "Pain Points", func(c api.Customer) string { return strings.Join(c.BehavioralData.PainPoints, ", ") }),
		text(ColLastActivity, "Last Activity", api.Customer.LastActivity),
		{Key: ColReady, Label: "Reachout Info Ready", Value: func(c api.Customer) table.Value {
			return table.Bool(g.isReady(c.ID))
		}},
	}
}

func (g *CustomerGrid) isReady(id int) bool {
	return g.ready != nil && g.ready.IsComplete(id)
}

// View exposes the underlying table state.
func (g *CustomerGrid) View() *table.View[api.Customer] { return g.view }

// Loaded reports whether customers have been synced.
func (g *CustomerGrid) Loaded() bool { return g.view.Loaded() }

// Load replaces the customer rows.
func (g *CustomerGrid) Load(customers []api.Customer) { g.view.Load(customers) }

// Sync fetches the customer list from the backend and loads it.
func (g *CustomerGrid) Sync(ctx context.Context, backend interface {
	ListCustomers(ctx context.Context) ([]api.Customer, error)
}) error {
	customers, err := backend.ListCustomers(ctx)
	if err != nil {
		return err
	}
	g.Load(customers)
	return nil
}

// SetSort toggles or changes the sort column.
func (g *CustomerGrid) SetSort(key string) { g.view.SetSort(key) }

// SetSearch replaces the search text.
func (g *CustomerGrid) SetSearch(search string) { g.view.SetSearch(search) }

// Render computes the visible rows. The cache is read once per call.
func (g *CustomerGrid) Render(ctx context.Context) CustomerTable {
	g.ready = nil
	if g.cache != nil {
		g.ready = g.cache.Snapshot(ctx)
	}
	defer func() { g.ready = nil }()

	res := g.view.Compute()
	out := CustomerTable{
		Headers: res.Headers,
		State:   res.State,
		Search:  res.Filter.Search,
		Total:   res.Total,
		Rows:    make([]CustomerRow, 0, len(res.Rows)),
	}
	for _, c := range res.Rows {
		out.Rows = append(out.Rows, CustomerRow{
			ID:           c.ID,
			Company:      c.Company.Name,
			Industry:     c.Company.Industry,
			Size:         c.Company.Size,
			Location:     c.Company.Location,
			Budget:       c.BehavioralData.BudgetRange,
			PainPoints:   c.BehavioralData.PainPoints,
			LastActivity: c.LastActivity(),
			Ready:        g.isReady(c.ID),
		})
	}
	return out
}
