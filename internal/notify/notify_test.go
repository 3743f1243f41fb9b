package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch := b.Subscribe()
	require.NotNil(t, ch)
	assert.Equal(t, 1, b.Subscribers())

	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.Subscribers())

	_, open := <-ch
	assert.False(t, open, "channel is closed on unsubscribe")

	// Second unsubscribe must not panic on a closed channel.
	b.Unsubscribe(ch)
}

func TestBroadcaster_Broadcast(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Broadcast()

	for i, ch := range []chan struct{}{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d did not receive broadcast", i)
		}
	}
}

func TestBroadcaster_NonBlocking(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ch <- struct{}{}

	done := make(chan struct{})
	go func() {
		b.Broadcast()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked on full channel")
	}
}

func TestBroadcaster_Concurrent(t *testing.T) {
	b := NewBroadcaster()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := b.Subscribe()
			b.Broadcast()
			b.Unsubscribe(ch)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, b.Subscribers())
}

func TestLevel(t *testing.T) {
	tests := []struct {
		level Level
		str   string
		title string
	}{
		{Info, "info", "Info"},
		{Success, "success", "Success"},
		{Warning, "warning", "Warning"},
		{Error, "error", "Error"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.level.String())
			assert.Equal(t, tt.title, tt.level.Title())
		})
	}
}

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []func()
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) *time.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, f)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	fns := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

func TestBoard_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	bc := NewBroadcaster()
	ch := bc.Subscribe()
	defer bc.Unsubscribe(ch)

	board := NewBoard(0, bc)
	board.now = clock.Now
	board.after = clock.AfterFunc

	toast := board.Notify(Error, "Please select a customer first")
	assert.Equal(t, "Error", toast.Title)
	assert.Equal(t, toast.Created.Add(DefaultTTL), toast.Expires)
	assert.NotEmpty(t, toast.ID)
	<-ch

	active := board.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Please select a customer first", active[0].Message)

	clock.Advance(DefaultTTL)
	assert.Empty(t, board.Active())

	select {
	case <-ch:
	default:
		t.Error("expiry did not broadcast")
	}
}

func TestBoard_Dismiss(t *testing.T) {
	board := NewBoard(time.Minute, nil)
	a := board.Notify(Info, "a")
	board.Notify(Success, "b")

	board.Dismiss(a.ID)
	board.Dismiss("unknown")

	active := board.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Message)
}
