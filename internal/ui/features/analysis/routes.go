// Package analysis provides the AI analysis tab: customer selection, the
// pipeline actions and the live update stream shared by every tab.
package analysis

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// SetupRoutes configures routes for the analysis feature.
func SetupRoutes(router chi.Router, registry *workspace.Registry, isDev bool) error {
	handlers := NewHandlers(registry, isDev)

	router.Get("/", handlers.AnalysisPage)
	router.Get("/updates", handlers.Updates)

	router.Post("/api/select", handlers.Select)
	router.Post("/api/deselect", handlers.Deselect)
	router.Post("/api/run/{stage}", handlers.Run)
	router.Get("/api/email.txt", handlers.DownloadEmail)
	router.Post("/api/email/copied", handlers.EmailCopied)

	return nil
}
