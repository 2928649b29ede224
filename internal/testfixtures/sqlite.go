package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/civisos/internal/persistence/memory"
	"github.com/example/civisos/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated store backed by a temporary file. The
// store is closed when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "civisos.db")
	storage, err := sqlite.Open(context.Background(), sqlite.TempFileTestConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}

// NewMemoryStore returns an in-memory store closed when the test finishes.
func NewMemoryStore(tb testing.TB) *memory.Storage {
	tb.Helper()

	store := memory.Open()
	tb.Cleanup(func() { _ = store.Close() })
	return store
}
