package customers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/salesdesk/internal/notify"
	"github.com/leapstack-labs/salesdesk/internal/ui/components"
	"github.com/leapstack-labs/salesdesk/internal/ui/features/common"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// Handlers provides HTTP handlers for the customers feature.
type Handlers struct {
	registry *workspace.Registry
	logger   *slog.Logger
	isDev    bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(registry *workspace.Registry, isDev bool) *Handlers {
	return &Handlers{registry: registry, logger: registry.Logger(), isDev: isDev}
}

// CustomersPage renders the customers tab. The table stays empty until the
// operator syncs from the CRM.
func (h *Handlers) CustomersPage(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ws.CheckConnection(r.Context())
	common.RenderPage(w, r, ws, components.TabCustomers, "Customers", h.isDev)
}

// Sync loads the customer table from the backend.
func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := ws.SyncCustomers(r.Context()); err != nil {
		h.logger.Warn("customer sync failed", "error", err)
		ws.Toasts.Notify(notify.Error, "Failed to load customers")
	}
	h.patch(r, sse, ws)
}

// Sort sorts the table by the column in the path, toggling the direction
// when it is already the sort column.
func (h *Handlers) Sort(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	ws.SortCustomers(chi.URLParam(r, "column"))
	h.patch(r, sse, ws)
}

// Search filters the table by the search signal.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals common.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
		return
	}

	sse := datastar.NewSSE(w, r)
	ws.SearchCustomers(signals.Search)
	h.patch(r, sse, ws)
}

func (h *Handlers) patch(r *http.Request, sse *datastar.ServerSentEventGenerator, ws *workspace.Workspace) {
	if err := common.PatchApp(r.Context(), sse, ws, components.TabCustomers); err != nil {
		_ = sse.ConsoleError(err)
	}
}
