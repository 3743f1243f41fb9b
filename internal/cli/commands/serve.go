package commands

import (
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/salesdesk/internal/state"
	"github.com/leapstack-labs/salesdesk/internal/ui"
)

// ServeOptions holds options for the serve command that are not
// configuration keys.
type ServeOptions struct {
	Dev bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the SalesDesk dashboard",
		Long: `Start a local web server with the sales dashboard.

The dashboard provides:
- Customer selection with AI analysis, product matching and email drafts
- Mockup generation for the top recommendation
- The CRM customer table with sorting and search
- The product catalog with category filters`,
		Example: `  # Start the dashboard on the default port
  salesdesk serve

  # Start on a custom port without opening a browser
  salesdesk serve --port 3000 --open=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().Bool("open", true, "Open the dashboard in a browser")
	cmd.Flags().Bool("watch", true, "Refresh dashboards when the cache file changes")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Reload the browser when the server restarts")

	return cmd
}

// newServer builds the dashboard server from the command configuration.
// The cache cleanup must be called once the server has stopped.
func newServer(cmd *cobra.Command, cc *CommandContext, opts *ServeOptions) (*ui.Server, func(), error) {
	store, cleanup, err := cc.OpenCache(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	secret := cc.Cfg.UI.SessionSecret
	if secret == "" {
		cc.Logger.Debug("no ui.session_secret configured, sessions will not survive a restart")
		secret = uuid.NewString()
	}

	sessionOpts := cc.Cfg.SessionOptions()
	sessionOpts.Logger = cc.Logger

	server := ui.NewServer(ui.Config{
		Backend:        cc.Client(),
		Cache:          store,
		SessionOptions: sessionOpts,
		ToastTTL:       cc.Cfg.Notify.TTL,
		WorkspaceIdle:  cc.Cfg.UI.WorkspaceIdle,
		Port:           cc.Cfg.UI.Port,
		Watch:          cc.Cfg.UI.Watch && cc.Cfg.Cache.Backend != state.BackendMemory,
		CachePath:      cc.Cfg.Cache.Path,
		SessionSecret:  secret,
		Dev:            opts.Dev,
		Logger:         cc.Logger,
	})
	return server, cleanup, nil
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	server, cleanup, err := newServer(cmd, cc, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	if cc.Cfg.UI.AutoOpen {
		go openBrowser(server.URL())
	}

	r := cc.Renderer
	r.Printf("Starting SalesDesk dashboard on %s\n", server.URL())
	r.Muted("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
