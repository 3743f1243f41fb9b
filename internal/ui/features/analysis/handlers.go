package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/salesdesk/internal/notify"
	"github.com/leapstack-labs/salesdesk/internal/session"
	"github.com/leapstack-labs/salesdesk/internal/ui/components"
	"github.com/leapstack-labs/salesdesk/internal/ui/features/common"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// StageAll runs analysis, recommendations and email in one action.
const StageAll = "all"

// Handlers provides HTTP handlers for the analysis feature.
type Handlers struct {
	registry *workspace.Registry
	logger   *slog.Logger
	isDev    bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(registry *workspace.Registry, isDev bool) *Handlers {
	return &Handlers{
		registry: registry,
		logger:   registry.Logger(),
		isDev:    isDev,
	}
}

// AnalysisPage renders the analysis tab with the customer dropdown filled.
func (h *Handlers) AnalysisPage(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ws.CheckConnection(r.Context())
	if err := ws.LoadPicker(r.Context()); err != nil {
		h.logger.Warn("failed to load customers", "error", err)
		ws.Toasts.Notify(notify.Error, "Failed to load customers")
	}
	common.RenderPage(w, r, ws, components.TabAnalysis, "AI Analysis", h.isDev)
}

// Updates is the long-lived SSE endpoint every tab subscribes to.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	common.Stream(w, r, ws, common.Tab(r, components.TabAnalysis))
}

// Select loads the customer named by the customer signal. An empty signal
// clears the selection. Selecting from the customers tab navigates to the
// analysis tab.
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
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
	ctx := context.WithoutCancel(r.Context())

	if id := signals.CustomerID(); id == 0 {
		ws.Session.Deselect()
	} else if err := ws.Session.Select(ctx, id); err != nil {
		ws.Fail(session.Profile, err)
	}

	if common.Tab(r, components.TabAnalysis) == components.TabCustomers {
		_ = sse.ExecuteScript("window.location.assign('/')")
		return
	}
	if err := common.PatchApp(ctx, sse, ws, components.TabAnalysis); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Deselect clears the selected customer.
func (h *Handlers) Deselect(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	ws.Session.Deselect()
	if err := common.PatchApp(r.Context(), sse, ws, components.TabAnalysis); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Run executes one pipeline stage, or the whole pipeline for "all", for the
// selected customer. Results land in the session and are pushed to the
// update stream as they arrive.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "stage")
	var stage session.Stage
	if name != StageAll {
		var err error
		stage, err = session.ParseStage(name)
		if err != nil || stage == session.Profile {
			http.Error(w, fmt.Sprintf("unknown stage %q", name), http.StatusNotFound)
			return
		}
	}

	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	// The response outlives a closed tab so finished results still reach
	// the cache.
	ctx := context.WithoutCancel(r.Context())

	if name == StageAll {
		if err := ws.Session.RunAll(ctx); err != nil {
			ws.Fail(ws.Session.View().FailedStage(err), err)
		}
	} else if err := ws.Session.Run(ctx, stage, ws.AddedProducts()...); err != nil {
		ws.Fail(stage, err)
	}

	if err := common.PatchApp(ctx, sse, ws, components.TabAnalysis); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// DownloadEmail serves the generated email as a text attachment.
func (h *Handlers) DownloadEmail(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	text, ok := ws.Session.EmailText()
	if !ok {
		http.Error(w, "no email has been generated", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ws.Session.EmailFilename()))
	if _, err := w.Write([]byte(text)); err != nil {
		h.logger.Debug("email download interrupted", "error", err)
		return
	}
	ws.Toasts.Notify(notify.Success, "Email downloaded successfully!")
}

// EmailCopied acknowledges a clipboard copy made in the browser.
func (h *Handlers) EmailCopied(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Resolve(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	ws.Toasts.Notify(notify.Success, "Email copied to clipboard!")
	if err := common.PatchApp(r.Context(), sse, ws, components.TabAnalysis); err != nil {
		_ = sse.ConsoleError(err)
	}
}
