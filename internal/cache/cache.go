// Package cache keeps the per-customer pipeline results (analysis,
// recommendations, email) that survive restarts. The whole map is stored as
// one JSON blob in a state backend and rewritten on every update.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/state"
)

// ErrUnavailable is returned when the backend cannot be read.
var ErrUnavailable = errors.New("cache unavailable")

// Entry holds the cached results for one customer. Nil fields are absent.
type Entry struct {
	Analysis        *api.Analysis        `json:"analysis,omitempty"`
	Recommendations *api.Recommendations `json:"recommendations,omitempty"`
	Email           *api.Email           `json:"email,omitempty"`
	UpdatedAt       time.Time            `json:"updated_at,omitzero"`
}

// Complete reports whether analysis, recommendations and email are all
// present and non-empty.
func (e Entry) Complete() bool {
	return e.Analysis != nil && !e.Recommendations.Empty() && !e.Email.Empty()
}

// merge overlays the non-nil fields of partial onto e.
func (e Entry) merge(partial Entry) Entry {
	if partial.Analysis != nil {
		e.Analysis = partial.Analysis
	}
	if partial.Recommendations != nil {
		e.Recommendations = partial.Recommendations
	}
	if partial.Email != nil {
		e.Email = partial.Email
	}
	return e
}

// Snapshot is a point-in-time copy of the cache keyed by customer id.
type Snapshot map[int]Entry

// Get returns the entry for id.
func (s Snapshot) Get(id int) (Entry, bool) {
	e, ok := s[id]
	return e, ok
}

// IsComplete reports whether the entry for id is complete. Unknown ids are
// never complete.
func (s Snapshot) IsComplete(id int) bool {
	e, ok := s[id]
	return ok && e.Complete()
}

// IDs returns the cached customer ids in ascending order.
func (s Snapshot) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Store is the durable per-customer result cache.
type Store struct {
	mu      sync.Mutex
	backend state.Store
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Store persisting through backend.
func New(backend state.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the cached entry for id.
func (s *Store) Get(ctx context.Context, id int) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _ := s.load(ctx)
	e, ok := entries[key(id)]
	return e, ok
}

// Merge overlays the non-nil fields of partial onto the entry for id and
// writes the whole cache back. The merged entry is returned even when the
// write fails. Nothing is written when the backend could not be read, so a
// failed read never replaces the stored entries.
func (s *Store) Merge(ctx context.Context, id int, partial Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, readable := s.load(ctx)
	merged := entries[key(id)].merge(partial)
	merged.UpdatedAt = s.now().UTC()
	if !readable {
		s.logger.Warn("cache unreadable, not persisting result", "customer_id", id)
		return merged
	}
	entries[key(id)] = merged

	if err := s.save(ctx, entries); err != nil {
		s.logger.Warn("failed to persist cache", "customer_id", id, "error", err)
	}
	return merged
}

// IsComplete reports whether the entry for id holds all three results.
func (s *Store) IsComplete(ctx context.Context, id int) bool {
	e, ok := s.Get(ctx, id)
	return ok && e.Complete()
}

// Snapshot reads the whole cache once.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _ := s.load(ctx)
	snap := make(Snapshot, len(entries))
	for k, e := range entries {
		id, err := strconv.Atoi(k)
		if err != nil {
			s.logger.Debug("skipping cache entry with non-numeric key", "key", k)
			continue
		}
		snap[id] = e
	}
	return snap
}

// Len returns the number of cached customers.
func (s *Store) Len(ctx context.Context) int {
	return len(s.Snapshot(ctx))
}

// Delete removes the entry for id.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, readable := s.load(ctx)
	if !readable {
		return ErrUnavailable
	}
	if _, ok := entries[key(id)]; !ok {
		return nil
	}
	delete(entries, key(id))
	return s.save(ctx, entries)
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, map[string]Entry{})
}

// load never fails: an unreadable or corrupt blob is an empty cache.
// readable is false only when the backend itself returned an error; a
// corrupt blob is readable and may be overwritten.
func (s *Store) load(ctx context.Context) (entries map[string]Entry, readable bool) {
	entries = map[string]Entry{}
	if s.backend == nil {
		return entries, true
	}

	data, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Warn("cache unavailable, treating as empty", "error", err)
		return entries, false
	}
	if len(data) == 0 {
		return entries, true
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("cache is corrupt, treating as empty", "error", err)
		return map[string]Entry{}, true
	}
	if entries == nil {
		entries = map[string]Entry{}
	}
	return entries, true
}

func (s *Store) save(ctx context.Context, entries map[string]Entry) error {
	if s.backend == nil {
		return nil
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.backend.Save(ctx, data)
}

func key(id int) string {
	return strconv.Itoa(id)
}
