package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cache"
	"github.com/leapstack-labs/salesdesk/internal/cli/config"
	"github.com/leapstack-labs/salesdesk/internal/cli/output"
	"github.com/leapstack-labs/salesdesk/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the loaded configuration, the logger and a
// renderer for cmd's output streams.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// Client creates an API client from the configuration.
func (c *CommandContext) Client() *api.Client {
	opts := c.Cfg.APIOptions()
	opts.Logger = c.Logger
	return api.New(opts)
}

// OpenCache opens the configured cache backend. The returned cleanup
// closes it.
func (c *CommandContext) OpenCache(ctx context.Context) (*cache.Store, func(), error) {
	backend, err := state.Open(ctx, c.Cfg.Cache.Backend, c.Cfg.Cache.Path, c.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache.New(backend, c.Logger), func() { _ = backend.Close() }, nil
}

// getConfig returns the configuration loaded by the root command, loading
// defaults when a command runs on its own.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}
