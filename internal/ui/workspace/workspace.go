// Package workspace keeps the server-side state of each dashboard operator.
// A workspace is found through a gorilla session cookie that carries its id.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cache"
	"github.com/leapstack-labs/salesdesk/internal/catalog"
	"github.com/leapstack-labs/salesdesk/internal/notify"
	"github.com/leapstack-labs/salesdesk/internal/session"
)

const (
	cookieName = "salesdesk"
	idKey      = "workspace"
)

// ErrUnknownProduct is returned when adding a product that is not in the
// loaded catalog.
var ErrUnknownProduct = errors.New("product is not in the catalog")

// DefaultIdleTimeout is how long a workspace without open streams is kept
// after its last request.
const DefaultIdleTimeout = time.Hour

// Backend is everything the dashboard asks of the sales agent API.
type Backend interface {
	session.Backend
	ListCustomers(ctx context.Context) ([]api.Customer, error)
	ListProducts(ctx context.Context) ([]api.Product, error)
	TestConnection(ctx context.Context) api.Connection
}

// Config holds the dependencies shared by all workspaces.
type Config struct {
	Backend        Backend
	Cache          *cache.Store
	Sessions       sessions.Store
	SessionOptions session.Options
	ToastTTL       time.Duration
	IdleTimeout    time.Duration
	Logger         *slog.Logger
}

// Registry creates and finds workspaces.
type Registry struct {
	mu         sync.Mutex
	cfg        Config
	workspaces map[string]*Workspace
	lastSeen   map[string]time.Time
	now        func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = sessions.NewCookieStore([]byte(uuid.NewString()))
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Registry{
		cfg:        cfg,
		workspaces: make(map[string]*Workspace),
		lastSeen:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// Resolve returns the workspace of the requesting operator, creating it and
// setting the cookie on first visit. It must run before any response body
// is written.
func (r *Registry) Resolve(w http.ResponseWriter, req *http.Request) (*Workspace, error) {
	sess, err := r.cfg.Sessions.Get(req, cookieName)
	if err != nil {
		// An unreadable cookie (rotated secret) still yields a fresh session.
		r.cfg.Logger.Debug("discarding invalid session cookie", "error", err)
	}

	id, _ := sess.Values[idKey].(string)
	if id != "" {
		return r.Get(id), nil
	}

	id = uuid.NewString()
	sess.Values[idKey] = id
	if err := sess.Save(req, w); err != nil {
		return nil, err
	}
	return r.Get(id), nil
}

// Get returns the workspace with id, creating it when unknown. Every call
// counts as activity for idle expiry.
func (r *Registry) Get(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSeen[id] = r.now()
	if ws, ok := r.workspaces[id]; ok {
		return ws
	}
	ws := r.newWorkspace(id)
	r.workspaces[id] = ws
	r.cfg.Logger.Debug("created workspace", "workspace", id)
	return ws
}

// IdleTimeout returns how long an unused workspace is kept.
func (r *Registry) IdleTimeout() time.Duration { return r.cfg.IdleTimeout }

// Sweep drops workspaces idle for longer than the idle timeout. Workspaces
// with an open update stream are kept. It returns the number removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.cfg.IdleTimeout)
	removed := 0
	for id, ws := range r.workspaces {
		if r.lastSeen[id].After(cutoff) || ws.Updates.Subscribers() > 0 {
			continue
		}
		delete(r.workspaces, id)
		delete(r.lastSeen, id)
		removed++
	}
	if removed > 0 {
		r.cfg.Logger.Debug("expired idle workspaces", "removed", removed, "remaining", len(r.workspaces))
	}
	return removed
}

// Len returns the number of workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// BroadcastAll pings the live streams of every workspace.
func (r *Registry) BroadcastAll() {
	r.mu.Lock()
	all := make([]*Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		all = append(all, ws)
	}
	r.mu.Unlock()

	for _, ws := range all {
		ws.Updates.Broadcast()
	}
}

// Logger returns the shared logger.
func (r *Registry) Logger() *slog.Logger { return r.cfg.Logger }

func (r *Registry) newWorkspace(id string) *Workspace {
	updates := notify.NewBroadcaster()
	opts := r.cfg.SessionOptions
	opts.Logger = r.cfg.Logger.With("workspace", id)
	opts.OnChange = updates.Broadcast

	return &Workspace{
		ID:        id,
		Session:   session.New(r.cfg.Backend, r.cfg.Cache, opts),
		Toasts:    notify.NewBoard(r.cfg.ToastTTL, updates),
		Updates:   updates,
		backend:   r.cfg.Backend,
		logger:    opts.Logger,
		customers: catalog.NewCustomerGrid(r.cfg.Cache),
		products:  catalog.NewProductGrid(),
	}
}

// Workspace is one operator's dashboard state.
type Workspace struct {
	ID      string
	Session *session.Session
	Toasts  *notify.Board
	Updates *notify.Broadcaster

	backend Backend
	logger  *slog.Logger

	mu           sync.Mutex
	customers    *catalog.CustomerGrid
	products     *catalog.ProductGrid
	picker       []api.Customer
	pickerLoaded bool
	conn         api.Connection
}

// CheckConnection probes the backend and remembers the result.
func (ws *Workspace) CheckConnection(ctx context.Context) api.Connection {
	conn := ws.backend.TestConnection(ctx)
	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()
	if !conn.Connected {
		ws.logger.Warn("backend unreachable", "error", conn.Error)
	}
	return conn
}

// Connection returns the last connection check.
func (ws *Workspace) Connection() api.Connection {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.conn
}

// LoadPicker fetches the customer list for the selection dropdown once.
func (ws *Workspace) LoadPicker(ctx context.Context) error {
	ws.mu.Lock()
	loaded := ws.pickerLoaded
	ws.mu.Unlock()
	if loaded {
		return nil
	}

	customers, err := ws.backend.ListCustomers(ctx)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	ws.picker = customers
	ws.pickerLoaded = true
	ws.mu.Unlock()
	return nil
}

// Picker returns the customers offered in the selection dropdown.
func (ws *Workspace) Picker() []api.Customer {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.picker
}

// SyncCustomers loads the customer table from the backend.
func (ws *Workspace) SyncCustomers(ctx context.Context) error {
	customers, err := ws.backend.ListCustomers(ctx)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.customers.Load(customers)
	if !ws.pickerLoaded {
		ws.picker = customers
		ws.pickerLoaded = true
	}
	return nil
}

// SortCustomers toggles or changes the customer table sort.
func (ws *Workspace) SortCustomers(key string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.customers.SetSort(key)
}

// SearchCustomers replaces the customer table search text.
func (ws *Workspace) SearchCustomers(search string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.customers.SetSearch(search)
}

// Customers renders the customer table.
func (ws *Workspace) Customers(ctx context.Context) catalog.CustomerTable {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.customers.Render(ctx)
}

// LoadProducts fetches the product catalog unless it is already loaded.
func (ws *Workspace) LoadProducts(ctx context.Context) error {
	ws.mu.Lock()
	loaded := ws.products.Loaded()
	ws.mu.Unlock()
	if loaded {
		return nil
	}

	products, err := ws.backend.ListProducts(ctx)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.products.Load(products)
	return nil
}

// FilterProducts replaces the product grid search text and category.
func (ws *Workspace) FilterProducts(search, category string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.products.SetSearch(search)
	ws.products.SetCategory(category)
}

// AddProduct marks a product as added to the recommendations. It reports
// false when the product was already added, and ErrUnknownProduct when id
// is not in the loaded catalog.
func (ws *Workspace) AddProduct(id int) (bool, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.products.View().Marked(id) {
		return false, nil
	}
	if !ws.products.Add(id) {
		return false, ErrUnknownProduct
	}
	return true, nil
}

// AddedProducts returns the ids added from the product grid.
func (ws *Workspace) AddedProducts() []int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.products.Added()
}

// Products renders the product grid.
func (ws *Workspace) Products() catalog.ProductGridView {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.products.Render()
}

// Fail posts the notice for a failed action, if any.
func (ws *Workspace) Fail(stage session.Stage, err error) {
	if msg, ok := session.Notice(stage, err); ok {
		ws.Toasts.Notify(notify.Error, msg)
	}
}
