package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/state"
	"github.com/leapstack-labs/salesdesk/internal/testutil"
)

func analysis() *api.Analysis {
	return &api.Analysis{CustomerID: 42, ConfidenceScore: 0.8}
}

func recommendations() *api.Recommendations {
	return &api.Recommendations{CustomerID: 42, Recommendations: []api.Recommendation{{ProductID: 1, Name: "Mug"}}}
}

func email() *api.Email {
	return &api.Email{CustomerID: 42, Subject: "Hi", Body: "Body"}
}

func newStore(t *testing.T) (*Store, *state.MemoryStore) {
	t.Helper()
	backend := state.NewMemoryStore()
	return New(backend, testutil.NewTestLogger(t)), backend
}

func TestStore_MergeBecomesComplete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	assert.False(t, s.IsComplete(ctx, 42), "unknown id is never complete")

	s.Merge(ctx, 42, Entry{Analysis: analysis()})
	assert.False(t, s.IsComplete(ctx, 42))

	s.Merge(ctx, 42, Entry{Recommendations: recommendations()})
	assert.False(t, s.IsComplete(ctx, 42))

	s.Merge(ctx, 42, Entry{Email: email()})
	assert.True(t, s.IsComplete(ctx, 42))
}

func TestStore_MergeKeepsExistingFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	s.Merge(ctx, 7, Entry{Analysis: analysis()})
	merged := s.Merge(ctx, 7, Entry{Email: email()})

	require.NotNil(t, merged.Analysis)
	require.NotNil(t, merged.Email)
	assert.Nil(t, merged.Recommendations)
	assert.False(t, merged.Complete())

	got, ok := s.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, 0.8, got.Analysis.ConfidenceScore)
	assert.Equal(t, "Hi", got.Email.Subject)
}

func TestStore_MergeOverwritesPresentFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	s.Merge(ctx, 1, Entry{Email: email()})
	s.Merge(ctx, 1, Entry{Email: &api.Email{Subject: "Second"}})

	got, ok := s.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "Second", got.Email.Subject)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.UpdatedAt)
}

func TestEntry_Complete(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{name: "empty", entry: Entry{}},
		{name: "all present", entry: Entry{Analysis: analysis(), Recommendations: recommendations(), Email: email()}, want: true},
		{name: "empty recommendation list", entry: Entry{Analysis: analysis(), Recommendations: &api.Recommendations{}, Email: email()}},
		{name: "blank email", entry: Entry{Analysis: analysis(), Recommendations: recommendations(), Email: &api.Email{}}},
		{name: "missing analysis", entry: Entry{Recommendations: recommendations(), Email: email()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Complete())
		})
	}
}

func TestStore_CorruptBlobIsEmpty(t *testing.T) {
	ctx := context.Background()
	logger, rec := testutil.NewRecordingLogger()
	backend := state.NewMemoryStore()
	require.NoError(t, backend.Save(ctx, []byte(`{not json`)))
	s := New(backend, logger)

	_, ok := s.Get(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(ctx))
	assert.True(t, rec.Contains("cache is corrupt"))

	// The next merge replaces the corrupt blob.
	s.Merge(ctx, 1, Entry{Analysis: analysis()})
	_, ok = s.Get(ctx, 1)
	assert.True(t, ok)
}

func TestStore_BackendUnavailable(t *testing.T) {
	ctx := context.Background()
	logger, rec := testutil.NewRecordingLogger()
	backend := state.NewMemoryStore()
	backend.Fail(errors.New("quota exceeded"))
	s := New(backend, logger)

	merged := s.Merge(ctx, 3, Entry{Analysis: analysis()})
	assert.NotNil(t, merged.Analysis, "merge result is still returned")
	assert.False(t, s.IsComplete(ctx, 3))
	assert.True(t, rec.Contains("cache unavailable"))
	assert.True(t, rec.Contains("not persisting result"))
	assert.ErrorIs(t, s.Delete(ctx, 3), ErrUnavailable)
}

// flakyBackend fails the next failLoads Load calls.
type flakyBackend struct {
	*state.MemoryStore
	failLoads int
}

func (b *flakyBackend) Load(ctx context.Context) ([]byte, error) {
	if b.failLoads > 0 {
		b.failLoads--
		return nil, errors.New("database is locked")
	}
	return b.MemoryStore.Load(ctx)
}

func TestStore_ReadFailureKeepsStoredEntries(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryStore: state.NewMemoryStore()}
	s := New(backend, testutil.NewTestLogger(t))

	s.Merge(ctx, 1, Entry{Analysis: analysis()})
	s.Merge(ctx, 2, Entry{Analysis: analysis(), Email: email()})

	backend.failLoads = 1
	merged := s.Merge(ctx, 2, Entry{Recommendations: recommendations()})
	assert.NotNil(t, merged.Recommendations, "merge result is still returned")

	snap := s.Snapshot(ctx)
	assert.Equal(t, []int{1, 2}, snap.IDs())
	got, ok := snap.Get(2)
	require.True(t, ok)
	assert.NotNil(t, got.Analysis)
	assert.NotNil(t, got.Email)
	assert.Nil(t, got.Recommendations, "unpersisted merge is not stored")

	backend.failLoads = 1
	s.Merge(ctx, 3, Entry{Analysis: analysis()})
	assert.Equal(t, 2, s.Len(ctx))
}

func TestStore_SnapshotDeleteClear(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)

	s.Merge(ctx, 2, Entry{Analysis: analysis()})
	s.Merge(ctx, 1, Entry{Analysis: analysis(), Recommendations: recommendations(), Email: email()})

	snap := s.Snapshot(ctx)
	assert.Equal(t, []int{1, 2}, snap.IDs())
	assert.True(t, snap.IsComplete(1))
	assert.False(t, snap.IsComplete(2))
	assert.False(t, snap.IsComplete(99))

	require.NoError(t, s.Delete(ctx, 2))
	require.NoError(t, s.Delete(ctx, 2))
	assert.Equal(t, 1, s.Len(ctx))

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len(ctx))

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestStore_BlobShape(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)

	s.Merge(ctx, 42, Entry{Email: email()})

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"42":{"email":`)
	assert.NotContains(t, string(data), `"analysis"`, "absent fields are omitted")
}

func TestStore_ConcurrentMerges(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.Merge(ctx, id, Entry{Analysis: analysis()})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len(ctx), "no merge is lost")
}

func TestStore_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	backend, err := state.Open(ctx, state.BackendSQLite, path, nil)
	require.NoError(t, err)
	New(backend, nil).Merge(ctx, 5, Entry{Analysis: analysis(), Recommendations: recommendations(), Email: email()})
	require.NoError(t, backend.Close())

	backend, err = state.Open(ctx, state.BackendSQLite, path, nil)
	require.NoError(t, err)
	defer backend.Close()

	assert.True(t, New(backend, nil).IsComplete(ctx, 5))
}
