// Package common provides the view assembly and request helpers shared by
// the dashboard features.
package common

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/salesdesk/internal/ui/components"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// Signals are the datastar signals sent with every action.
type Signals struct {
	Customer      string `json:"customer"`
	Search        string `json:"search"`
	Category      string `json:"category"`
	ProductSearch string `json:"productsearch"`
}

// CustomerID returns the selected customer id, or 0 when none is selected.
func (s Signals) CustomerID() int {
	id, err := strconv.Atoi(strings.TrimSpace(s.Customer))
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// Tab returns the tab named by the request's tab query parameter, or
// fallback when it names none.
func Tab(r *http.Request, fallback string) string {
	switch tab := r.URL.Query().Get("tab"); tab {
	case components.TabAnalysis, components.TabCustomers, components.TabProducts:
		return tab
	default:
		return fallback
	}
}

// BuildApp assembles the #app fragment of ws for tab.
func BuildApp(ctx context.Context, ws *workspace.Workspace, tab string) components.AppData {
	view := ws.Session.View()
	emailText, _ := ws.Session.EmailText()

	app := components.AppData{
		Tab:        tab,
		Connection: ws.Connection(),
		Session:    view,
		Picker:     components.PickerOptions(ws.Picker(), view.CustomerID),
		EmailText:  emailText,
		Mockups:    components.MockupItems(view.Mockup),
		Toasts:     ws.Toasts.Active(),
	}
	switch tab {
	case components.TabCustomers:
		customers := ws.Customers(ctx)
		app.Customers = &customers
	case components.TabProducts:
		products := ws.Products()
		app.Products = &products
	}
	return app
}

// RenderPage writes a full document for tab.
func RenderPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, tab, title string, isDev bool) {
	page := components.PageData{
		Title: title,
		IsDev: isDev,
		App:   BuildApp(r.Context(), ws, tab),
	}
	if err := components.Page(page).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// PatchApp sends the #app fragment of ws for tab.
func PatchApp(ctx context.Context, sse *datastar.ServerSentEventGenerator, ws *workspace.Workspace, tab string) error {
	return sse.PatchElementTempl(components.App(BuildApp(ctx, ws, tab)))
}

// Stream patches the #app fragment every time ws changes until the request
// ends. Nothing is sent up front since the page was rendered with the
// current state.
func Stream(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, tab string) {
	sse := datastar.NewSSE(w, r)

	updates := ws.Updates.Subscribe()
	defer ws.Updates.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := PatchApp(ctx, sse, ws, tab); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}
