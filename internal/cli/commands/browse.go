package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/salesdesk/internal/catalog"
	"github.com/leapstack-labs/salesdesk/internal/tui"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse customers and products in the terminal",
		Long: `Open an interactive terminal view of the customer table and the
product catalog.

Keys: tab switches grids, / searches, s changes the sort column,
r reverses it, c cycles product categories and q quits.`,
		RunE: runBrowse,
	}
}

// loadGrids fetches customers and products concurrently.
func loadGrids(cmd *cobra.Command, cc *CommandContext, customers *catalog.CustomerGrid, products *catalog.ProductGrid) error {
	client := cc.Client()
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		if err := customers.Sync(ctx, client); err != nil {
			return fmt.Errorf("failed to load customers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := products.Sync(ctx, client); err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func runBrowse(cmd *cobra.Command, _ []string) error {
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

	customers := catalog.NewCustomerGrid(store)
	products := catalog.NewProductGrid()
	if err := loadGrids(cmd, cc, customers, products); err != nil {
		return err
	}

	p := tea.NewProgram(
		tui.New(ctx, customers, products),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal browser failed: %w", err)
	}
	return nil
}
