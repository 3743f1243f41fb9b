// Package state provides the durable key-value backends that persist the
// dashboard's result cache. Each backend holds exactly one blob which is
// read and written wholesale.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store persists a single serialized blob.
type Store interface {
	// Load returns the stored blob, or nil when nothing has been saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored blob.
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// DefaultKey is the key the cache blob is stored under.
const DefaultKey = "analysis_cache"

// ErrNotOpen is returned when a store is used before Open or after Close.
var ErrNotOpen = errors.New("database not opened")

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendSQLite, BackendFile, BackendMemory}
}

// Open creates the backend named by kind. The parent directory of path is
// created when needed.
func Open(ctx context.Context, kind, path string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendSQLite:
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		s := NewSQLiteStore(logger)
		if err := s.Open(path); err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case BackendFile:
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (expected one of %s)", kind, strings.Join(Backends(), ", "))
	}
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}
