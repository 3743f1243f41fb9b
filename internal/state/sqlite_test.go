package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/salesdesk/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSQLiteStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data, "unwritten key loads as nil")

	require.NoError(t, store.Save(ctx, []byte(`{"1":{}}`)))
	require.NoError(t, store.Save(ctx, []byte(`{"2":{}}`)))

	data, err = store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2":{}}`, string(data))

	var rows int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&rows))
	assert.Equal(t, 1, rows, "blob is kept in a single row")
}

func TestSQLiteStore_WithKey(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.Save(ctx, []byte("a")))
	other := NewSQLiteStoreWithDB(store.db, nil).WithKey("other")

	data, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, other.Save(ctx, []byte("b")))
	data, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	first, err := Open(ctx, BackendSQLite, path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, []byte("kept")))
	require.NoError(t, first.Close())

	second, err := Open(ctx, BackendSQLite, path, nil)
	require.NoError(t, err)
	defer second.Close()

	data, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(data))
}

func TestSQLiteStore_NotOpen(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, store.Save(context.Background(), nil), ErrNotOpen)
	assert.ErrorIs(t, store.Migrate(context.Background()), ErrNotOpen)
}

func TestSQLiteStore_QueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLiteStoreWithDB(db, testutil.NewTestLogger(t))
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT value FROM kv").WithArgs(DefaultKey).WillReturnError(boom)
	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to load analysis_cache")

	mock.ExpectExec("INSERT INTO kv").
		WithArgs(DefaultKey, []byte("x"), sqlmock.AnyArg()).
		WillReturnError(boom)
	err = store.Save(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
