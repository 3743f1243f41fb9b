// Package notify delivers operator notifications: a broadcaster that pings
// live dashboard streams, and a board of auto-dismissing toasts.
package notify

import "sync"

// Broadcaster pings every subscriber when dashboard state changed.
// Subscribers receive an empty struct and should re-render from state.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
}

// NewBroadcaster creates a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (b *Broadcaster) Unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[ch]; !ok {
		return
	}
	delete(b.listeners, ch)
	close(ch)
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Broadcast pings all subscribers without blocking. A subscriber with a
// pending ping is skipped; it re-renders once for both.
func (b *Broadcaster) Broadcast() {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
