package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/cache"
	"github.com/leapstack-labs/salesdesk/internal/cli/output"
)

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached pipeline results",
	}
	cmd.AddCommand(newCacheShowCommand(), newCacheClearCommand())
	return cmd
}

func newCacheShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [customer-id]",
		Short: "Show cached results",
		Long: `Show the cached analysis, recommendations and email per customer.

With -o json or -o yaml the full cached documents are printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCacheShow,
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [customer-id]",
		Short: "Remove cached results for one or all customers",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCacheClear,
	}
}

func parseCustomerArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid customer id %q", args[0])
	}
	return id, nil
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	id, err := parseCustomerArg(args)
	if err != nil {
		return err
	}

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, cleanup, err := cc.OpenCache(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	snap := store.Snapshot(cmd.Context())
	if id != 0 {
		e, ok := snap.Get(id)
		if !ok {
			return fmt.Errorf("no cached results for customer %d", id)
		}
		snap = cache.Snapshot{id: e}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(snap)
	case output.ModeYAML:
		return r.YAML(snap)
	}

	r.Header(1, fmt.Sprintf("Cache (%d customers)", len(snap)))
	r.Muted(fmt.Sprintf("%s: %s", cc.Cfg.Cache.Backend, cc.Cfg.Cache.Path))

	rows := make([][]string, 0, len(snap))
	for _, cid := range snap.IDs() {
		e := snap[cid]
		rows = append(rows, cacheRow(cid, e))
	}
	r.Table([]string{"Customer", "Analysis", "Recommendations", "Email", "Ready", "Updated"}, rows)
	return nil
}

func cacheRow(id int, e cache.Entry) []string {
	analysis := "—"
	if e.Analysis != nil {
		analysis = fmt.Sprintf("%d%% confidence", int(e.Analysis.ConfidenceScore*100+0.5))
	}
	recs := "—"
	if !e.Recommendations.Empty() {
		recs = strconv.Itoa(len(e.Recommendations.Recommendations))
	}
	email := "—"
	if !e.Email.Empty() {
		email = e.Email.Subject
	}
	ready := "—"
	if e.Complete() {
		ready = "✅"
	}
	updated := ""
	if !e.UpdatedAt.IsZero() {
		updated = e.UpdatedAt.Local().Format(time.DateTime)
	}
	return []string{strconv.Itoa(id), analysis, recs, email, ready, updated}
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	id, err := parseCustomerArg(args)
	if err != nil {
		return err
	}

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, cleanup, err := cc.OpenCache(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if id != 0 {
		if err := store.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		cc.Renderer.Success(fmt.Sprintf("Cleared cached results for customer %d", id))
		return nil
	}

	n := store.Len(cmd.Context())
	if err := store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	cc.Renderer.Success(fmt.Sprintf("Cleared cached results for %d customers", n))
	return nil
}
