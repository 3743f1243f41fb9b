package state

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps the blob in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
	err  error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored blob.
func (s *MemoryStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.data), nil
}

// Save stores a copy of data.
func (s *MemoryStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data = slices.Clone(data)
	return nil
}

// Fail makes every subsequent Load and Save return err. Pass nil to recover.
func (s *MemoryStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
