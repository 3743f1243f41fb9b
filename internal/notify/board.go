package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 5 * time.Second

// Level is the severity of a toast.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Title is the heading shown on a toast of this level.
func (l Level) Title() string {
	return cases.Title(language.English).String(l.String())
}

// Toast is one transient notification.
type Toast struct {
	ID      string
	Level   Level
	Title   string
	Message string
	Created time.Time
	Expires time.Time
}

// Board holds the visible toasts of one workspace. Toasts expire after the
// TTL; expiry triggers a broadcast so open pages drop them.
type Board struct {
	mu     sync.Mutex
	toasts []Toast
	ttl    time.Duration
	now    func() time.Time
	after  func(time.Duration, func()) *time.Timer
	bc     *Broadcaster
}

// NewBoard creates a Board. A non-positive ttl uses DefaultTTL. bc may be
// nil.
func NewBoard(ttl time.Duration, bc *Broadcaster) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{
		ttl:   ttl,
		now:   time.Now,
		after: time.AfterFunc,
		bc:    bc,
	}
}

// Notify posts a toast and returns it.
func (b *Board) Notify(level Level, message string) Toast {
	now := b.now()
	t := Toast{
		ID:      uuid.NewString(),
		Level:   level,
		Title:   level.Title(),
		Message: message,
		Created: now,
		Expires: now.Add(b.ttl),
	}

	b.mu.Lock()
	b.toasts = append(b.toasts, t)
	b.mu.Unlock()

	b.after(b.ttl, func() { b.Dismiss(t.ID) })
	b.broadcast()
	return t
}

// Active returns the unexpired toasts, oldest first.
func (b *Board) Active() []Toast {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.toasts = slices.DeleteFunc(b.toasts, func(t Toast) bool {
		return !now.Before(t.Expires)
	})
	return slices.Clone(b.toasts)
}

// Dismiss removes the toast with id.
func (b *Board) Dismiss(id string) {
	b.mu.Lock()
	n := len(b.toasts)
	b.toasts = slices.DeleteFunc(b.toasts, func(t Toast) bool { return t.ID == id })
	removed := len(b.toasts) != n
	b.mu.Unlock()

	if removed {
		b.broadcast()
	}
}

func (b *Board) broadcast() {
	if b.bc != nil {
		b.bc.Broadcast()
	}
}
