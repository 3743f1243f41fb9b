// Package router sets up HTTP routes for the dashboard server.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	analysisFeature "github.com/leapstack-labs/salesdesk/internal/ui/features/analysis"
	customersFeature "github.com/leapstack-labs/salesdesk/internal/ui/features/customers"
	productsFeature "github.com/leapstack-labs/salesdesk/internal/ui/features/products"
	"github.com/leapstack-labs/salesdesk/internal/ui/resources"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// SetupRoutes configures all routes for the dashboard server.
func SetupRoutes(router chi.Router, registry *workspace.Registry, isDev bool) error {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	router.Handle("/static/*", resources.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	if err := analysisFeature.SetupRoutes(router, registry, isDev); err != nil {
		return err
	}
	if err := customersFeature.SetupRoutes(router, registry, isDev); err != nil {
		return err
	}
	return productsFeature.SetupRoutes(router, registry, isDev)
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
