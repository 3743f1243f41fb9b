// Package components renders the dashboard markup. Every fragment is a
// templ.Component so it can be written to a response or patched over SSE.
package components

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/catalog"
	"github.com/leapstack-labs/salesdesk/internal/notify"
	"github.com/leapstack-labs/salesdesk/internal/session"
	"github.com/leapstack-labs/salesdesk/internal/table"
	"github.com/leapstack-labs/salesdesk/internal/ui/resources"
)

// Tab names.
const (
	TabAnalysis  = "analysis"
	TabCustomers = "customers"
	TabProducts  = "products"
)

// DatastarScript is the datastar client bundle.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("components").Funcs(template.FuncMap{
	"join":    strings.Join,
	"percent": api.Percent,
	"tabPath": TabPath,
	"stateIs": func(s table.State, name string) bool { return s.String() == name },
	"static":  resources.StaticPath,
}).ParseFS(templateFS, "templates/*.html"))

// Option is one entry of the customer dropdown.
type Option struct {
	ID       int
	Label    string
	Selected bool
}

// MockupItem is one image of the mockup gallery.
type MockupItem struct {
	Src         template.URL
	Alt         string
	Type        string
	Description string
}

// AppData is everything the #app fragment renders.
type AppData struct {
	Tab        string
	Connection api.Connection
	Session    session.View
	Picker     []Option
	EmailText  string
	Mockups    []MockupItem
	Customers  *catalog.CustomerTable
	Products   *catalog.ProductGridView
	Toasts     []notify.Toast
}

// TopRecommendations returns at most five recommendations for display.
func (a AppData) TopRecommendations() []api.Recommendation {
	recs := a.Session.Recommendations
	if recs.Empty() {
		return nil
	}
	if len(recs.Recommendations) > 5 {
		return recs.Recommendations[:5]
	}
	return recs.Recommendations
}

// CustomerName is the header caption.
func (a AppData) CustomerName() string {
	if c := a.Session.Customer; c != nil {
		return c.Company.Name
	}
	return "Select a customer to begin"
}

// PageData is a full document.
type PageData struct {
	Title string
	IsDev bool
	App   AppData
}

// Datastar is the client bundle URL.
func (PageData) Datastar() string { return DatastarScript }

// Page renders a complete HTML document around the app fragment.
func Page(p PageData) templ.Component {
	return render("page", p)
}

// App renders the #app fragment that live updates replace.
func App(a AppData) templ.Component {
	return render("app", a)
}

// TabPath returns the page URL of a tab.
func TabPath(tab string) string {
	switch tab {
	case TabCustomers:
		return "/customers"
	case TabProducts:
		return "/products"
	default:
		return "/"
	}
}

// MockupItems pairs each mockup image with its variation. Images that are
// neither data URIs nor http(s) URLs are dropped.
func MockupItems(m *api.Mockup) []MockupItem {
	if m == nil {
		return nil
	}
	items := make([]MockupItem, 0, len(m.MockupImages))
	for i, img := range m.MockupImages {
		if !strings.HasPrefix(img, "data:image/") && !strings.HasPrefix(img, "https://") && !strings.HasPrefix(img, "http://") {
			continue
		}
		v := m.Variation(i)
		items = append(items, MockupItem{
			Src:         template.URL(img),
			Alt:         "Mockup " + strconv.Itoa(i+1),
			Type:        v.Type,
			Description: v.Description,
		})
	}
	return items
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}
