// Package ui provides the browser dashboard for SalesDesk.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/salesdesk/internal/cache"
	"github.com/leapstack-labs/salesdesk/internal/session"
	"github.com/leapstack-labs/salesdesk/internal/ui/router"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

const watchDebounce = 100 * time.Millisecond

// Server is the dashboard server.
type Server struct {
	registry  *workspace.Registry
	port      int
	watch     bool
	cachePath string
	dev       bool
	logger    *slog.Logger
}

// Config holds configuration for the dashboard server.
type Config struct {
	Backend        workspace.Backend
	Cache          *cache.Store
	SessionOptions session.Options
	ToastTTL       time.Duration
	// WorkspaceIdle is how long an operator workspace outlives its last
	// request. Zero uses workspace.DefaultIdleTimeout.
	WorkspaceIdle time.Duration
	Port          int
	// Watch re-renders every open dashboard when the file at CachePath
	// changes, e.g. after a pipeline run from the CLI.
	Watch         bool
	CachePath     string
	SessionSecret string
	Dev           bool
	Logger        *slog.Logger
}

// NewServer creates a new dashboard server instance.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		registry: workspace.NewRegistry(workspace.Config{
			Backend:        cfg.Backend,
			Cache:          cfg.Cache,
			Sessions:       sessionStore,
			SessionOptions: cfg.SessionOptions,
			ToastTTL:       cfg.ToastTTL,
			IdleTimeout:    cfg.WorkspaceIdle,
			Logger:         cfg.Logger,
		}),
		port:      cfg.Port,
		watch:     cfg.Watch,
		cachePath: cfg.CachePath,
		dev:       cfg.Dev,
		logger:    cfg.Logger,
	}
}

// Registry returns the server's workspaces.
func (s *Server) Registry() *workspace.Registry {
	return s.registry
}

// URL is the address the dashboard is reachable at.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler builds the dashboard's HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.registry, s.dev); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the dashboard and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.logger.Info("starting dashboard", "addr", s.URL())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.cachePath != "" {
		eg.Go(func() error {
			return s.watchCache(egctx)
		})
	}

	eg.Go(func() error {
		s.sweepWorkspaces(egctx)
		return nil
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dashboard...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// sweepWorkspaces expires idle workspaces until ctx is done.
func (s *Server) sweepWorkspaces(ctx context.Context) {
	interval := max(s.registry.IdleTimeout()/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.registry.Sweep()
		}
	}
}

// watchCache pings every workspace when the cache file changes so the
// ready column reflects results written by other processes.
func (s *Server) watchCache(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// The directory is watched since writers replace the file.
	dir := filepath.Dir(s.cachePath)
	if err := watcher.Add(dir); err != nil {
		s.logger.Error("failed to watch cache directory", "dir", dir, "error", err)
		// Don't fail - continue without watching
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isCacheFile(s.cachePath, event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.logger.Debug("cache changed, refreshing dashboards", "file", event.Name)
				s.registry.BroadcastAll()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// isCacheFile matches the cache file and its sqlite companions (-wal, -shm).
func isCacheFile(cachePath, name string) bool {
	return strings.HasPrefix(filepath.Base(name), filepath.Base(cachePath))
}
