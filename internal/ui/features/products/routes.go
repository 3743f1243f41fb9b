// Package products provides the product catalog tab.
package products

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// SetupRoutes registers product routes on the router.
func SetupRoutes(router chi.Router, registry *workspace.Registry, isDev bool) error {
	handlers := NewHandlers(registry, isDev)

	router.Get("/products", handlers.ProductsPage)

	router.Post("/api/products/category", handlers.Filter)
	router.Post("/api/products/{id}/add", handlers.Add)

	return nil
}
