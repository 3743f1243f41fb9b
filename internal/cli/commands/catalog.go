package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/catalog"
	"github.com/leapstack-labs/salesdesk/internal/cli/output"
	"github.com/leapstack-labs/salesdesk/internal/table"
)

// CatalogOptions holds the view settings shared by the catalog commands.
type CatalogOptions struct {
	Search   string
	Sort     string
	Desc     bool
	Category string
}

// CustomersOutput is the JSON shape of the customers command.
type CustomersOutput struct {
	Total int                   `json:"total"`
	State string                `json:"state"`
	Rows  []catalog.CustomerRow `json:"rows"`
}

// ProductsOutput is the JSON shape of the products command.
type ProductsOutput struct {
	Total      int                   `json:"total"`
	State      string                `json:"state"`
	Categories []string              `json:"categories"`
	Cards      []catalog.ProductCard `json:"cards"`
}

// NewCustomersCommand creates the customers command.
func NewCustomersCommand() *cobra.Command {
	opts := &CatalogOptions{}

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List CRM customers",
		Long: `Fetch the customer list from the API and print it as a table.

The ready column shows whether analysis, recommendations and an email are
cached for the customer.`,
		Example: `  # Customers in the tech industry, largest budget first
  salesdesk customers --search tech --sort budget --desc

  # Machine readable
  salesdesk customers -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCustomers(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Search, "search", "", "Only show customers matching this text")
	cmd.Flags().StringVar(&opts.Sort, "sort", catalog.ColCompany, "Column to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")
	_ = cmd.RegisterFlagCompletionFunc("sort", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return catalog.NewCustomerGrid(nil).View().ColumnKeys(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// NewProductsCommand creates the products command.
func NewProductsCommand() *cobra.Command {
	opts := &CatalogOptions{}

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		Example: `  # Bags only
  salesdesk products --category Bags

  # Search names, descriptions and target industries
  salesdesk products --search tech`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProducts(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Search, "search", "", "Only show products matching this text")
	cmd.Flags().StringVar(&opts.Category, "category", table.All, "Only show products in this category")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Column to sort by (default: API order)")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")
	_ = cmd.RegisterFlagCompletionFunc("sort", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return catalog.NewProductGrid().View().ColumnKeys(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// applySort sets the view's sort from the --sort and --desc flags.
func applySort[T any](v *table.View[T], key string, desc bool) error {
	if key == "" {
		key = v.Sort().Column
		if key == "" {
			return nil
		}
	}
	if _, ok := v.Column(key); !ok {
		return fmt.Errorf("unknown sort column %q (expected one of %s)", key, strings.Join(v.ColumnKeys(), ", "))
	}
	v.SortBy(key, !desc)
	return nil
}

func runCustomers(cmd *cobra.Command, opts *CatalogOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, cleanup, err := cc.OpenCache(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	grid := catalog.NewCustomerGrid(store)
	if err := applySort(grid.View(), opts.Sort, opts.Desc); err != nil {
		return err
	}
	grid.SetSearch(opts.Search)

	if err := grid.Sync(ctx, cc.Client()); err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}

	t := grid.Render(ctx)
	r := cc.Renderer

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(CustomersOutput{Total: t.Total, State: t.State.String(), Rows: t.Rows})
	case output.ModeYAML:
		return r.YAML(CustomersOutput{Total: t.Total, State: t.State.String(), Rows: t.Rows})
	}

	r.Header(1, fmt.Sprintf("Customers (%d of %d)", len(t.Rows), t.Total))
	switch t.State {
	case table.StateEmpty:
		r.Muted("No customers found.")
		return nil
	case table.StateNoResults:
		r.Muted("No customers match your search.")
		return nil
	}

	headers := []string{"ID"}
	for _, h := range t.Headers {
		headers = append(headers, strings.TrimSpace(h.Label+" "+h.Indicator))
	}
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		ready := "—"
		if row.Ready {
			ready = "✅"
		}
		rows = append(rows, []string{
			strconv.Itoa(row.ID),
			row.Company,
			row.Industry,
			row.Size,
			row.Location,
			row.Budget,
			strings.Join(row.PainPoints, ", "),
			row.LastActivity,
			ready,
		})
	}
	r.Table(headers, rows)
	return nil
}

func runProducts(cmd *cobra.Command, opts *CatalogOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	grid := catalog.NewProductGrid()
	if err := applySort(grid.View(), opts.Sort, opts.Desc); err != nil {
		return err
	}
	grid.SetSearch(opts.Search)
	grid.SetCategory(opts.Category)

	if err := grid.Sync(cmd.Context(), cc.Client()); err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	v := grid.Render()
	r := cc.Renderer

	out := ProductsOutput{Total: v.Total, State: v.State.String(), Categories: v.Categories, Cards: v.Cards}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeYAML:
		return r.YAML(out)
	}

	r.Header(1, fmt.Sprintf("Products (%d of %d)", len(v.Cards), v.Total))
	switch v.State {
	case table.StateEmpty:
		r.Muted("No products found.")
		return nil
	case table.StateNoResults:
		r.Muted("No products match the filter.")
		return nil
	}

	rows := make([][]string, 0, len(v.Cards))
	for _, c := range v.Cards {
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			c.Name,
			c.Category,
			c.PriceRange,
			c.Customization,
			c.BestFor,
		})
	}
	r.Table([]string{"ID", "Name", "Category", "Price", "Customization", "Best For"}, rows)
	return nil
}
