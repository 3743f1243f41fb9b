package catalog

import (
	"context"
	"strings"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/table"
)

// DefaultProductColor is used when a product has no color of its own.
const DefaultProductColor = "#4F8EF7"

// ProductCard is one rendered card of the product grid.
type ProductCard struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	PriceRange    string `json:"price_range"`
	Description   string `json:"description"`
	Customization string `json:"customization"`
	BestFor       string `json:"best_for"`
	Color         string `json:"color"`
	Added         bool   `json:"added"`
}

// ProductGridView is the rendered product grid.
type ProductGridView struct {
	Cards      []ProductCard
	Categories []string
	Category   string
	Search     string
	State      table.State
	Total      int
}

// ProductGrid is the product catalog state. Products added to the
// recommendations are tracked as row marks.
type ProductGrid struct {
	view *table.View[api.Product]
}

// NewProductGrid creates a product grid that keeps backend order until a
// sort is chosen.
func NewProductGrid() *ProductGrid {
	return &ProductGrid{view: table.New(table.Config[api.Product]{
		ID: func(p api.Product) int { return p.ID },
		Columns: []table.Column[api.Product]{
			{Key: "name", Label: "Name", Value: func(p api.Product) table.Value { return table.String(p.Name) }},
			{Key: "category", Label: "Category", Value: func(p api.Product) table.Value { return table.String(p.Category) }},
			{Key: "minimum_order", Label: "Minimum Order", Value: func(p api.Product) table.Value { return table.Int(p.MinimumOrder) }},
		},
		SearchFields: []func(api.Product) string{
			func(p api.Product) string { return p.Name },
			func(p api.Product) string { return p.Category },
			func(p api.Product) string { return p.Description },
			func(p api.Product) string { return strings.Join(p.TargetAudience.Industries, ",") },
		},
		Category: func(p api.Product) string { return p.Category },
	})}
}

// View exposes the underlying table state.
func (g *ProductGrid) View() *table.View[api.Product] { return g.view }

// Loaded reports whether products have been loaded.
func (g *ProductGrid) Loaded() bool { return g.view.Loaded() }

// Load replaces the product rows.
func (g *ProductGrid) Load(products []api.Product) { g.view.Load(products) }

// Sync fetches the product list from the backend and loads it.
func (g *ProductGrid) Sync(ctx context.Context, backend interface {
	ListProducts(ctx context.Context) ([]api.Product, error)
}) error {
	products, err := backend.ListProducts(ctx)
	if err != nil {
		return err
	}
	g.Load(products)
	return nil
}

// SetCategory filters by category; table.All shows every product.
func (g *ProductGrid) SetCategory(category string) { g.view.SetCategory(category) }

// SetSearch replaces the search text.
func (g *ProductGrid) SetSearch(search string) { g.view.SetSearch(search) }

// Add marks a product as added to the recommendations. Adding twice is a
// no-op. It reports false, marking nothing, when id is not a loaded product.
func (g *ProductGrid) Add(id int) bool {
	if !g.view.Has(id) {
		return false
	}
	g.view.Mark(id)
	return true
}

// Added returns the added product ids in ascending order.
func (g *ProductGrid) Added() []int { return g.view.Marks() }

// Render computes the visible cards.
func (g *ProductGrid) Render() ProductGridView {
	res := g.view.Compute()
	out := ProductGridView{
		Categories: g.view.Categories(),
		Category:   res.Filter.Category,
		Search:     res.Filter.Search,
		State:      res.State,
		Total:      res.Total,
		Cards:      make([]ProductCard, 0, len(res.Rows)),
	}
	for _, p := range res.Rows {
		color := p.Color
		if color == "" {
			color = DefaultProductColor
		}
		out.Cards = append(out.Cards, ProductCard{
			ID:            p.ID,
			Name:          p.Name,
			Category:      p.Category,
			PriceRange:    p.PriceRange,
			Description:   p.Description,
			Customization: strings.Join(p.CustomizationKeys(), ", "),
			BestFor:       strings.Join(p.TargetAudience.Industries, ", "),
			Color:         color,
			Added:         g.view.Marked(p.ID),
		})
	}
	return out
}
