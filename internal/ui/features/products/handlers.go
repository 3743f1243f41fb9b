package products

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/salesdesk/internal/ui/components"
	"github.com/leapstack-labs/salesdesk/internal/ui/features/common"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// Handlers provides HTTP handlers for the products feature.
type Handlers struct {
	registry *workspace.Registry
	logger   *slog.Logger
	isDev    bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(registry *workspace.Registry, isDev bool) *Handlers {
	return &Handlers{registry: registry, logger: registry.Logger(), isDev: isDev}
}

// ProductsPage renders the product grid, loading the catalog on first visit.
func (h *Handlers) ProductsPage(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ws.CheckConnection(r.Context())
	if err := ws.LoadProducts(r.Context()); err != nil {
		h.logger.Warn("failed to load products", "error", err)
	}
	common.RenderPage(w, r, ws, components.TabProducts, "Products", h.isDev)
}

// Filter applies the category and search signals to the grid.
func (h *Handlers) Filter(w http.ResponseWriter, r *http.Request) {
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
	ws.FilterProducts(signals.ProductSearch, signals.Category)
	if err := common.PatchApp(r.Context(), sse, ws, components.TabProducts); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Add marks a product for inclusion in the next generated email.
func (h *Handlers) Add(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	added, err := ws.AddProduct(id)
	if errors.Is(err, workspace.ErrUnknownProduct) {
		http.Error(w, "unknown product", http.StatusNotFound)
		return
	}
	if added {
		h.logger.Debug("product added to recommendations", "product_id", id)
	}

	sse := datastar.NewSSE(w, r)
	if err := common.PatchApp(r.Context(), sse, ws, components.TabProducts); err != nil {
		_ = sse.ConsoleError(err)
	}
}
