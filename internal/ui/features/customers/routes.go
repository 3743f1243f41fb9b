// Package customers provides the CRM customers tab.
package customers

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// SetupRoutes registers customer routes on the router.
func SetupRoutes(router chi.Router, registry *workspace.Registry, isDev bool) error {
	handlers := NewHandlers(registry, isDev)

	router.Get("/customers", handlers.CustomersPage)

	router.Post("/api/customers/sync", handlers.Sync)
	router.Post("/api/customers/sort/{column}", handlers.Sort)
	router.Post("/api/customers/search", handlers.Search)

	return nil
}
