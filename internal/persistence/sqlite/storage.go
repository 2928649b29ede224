// Package sqlite persists slice snapshots and staff accounts in a SQLite
// database using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/civisos/internal/persistence"
)

// Storage bundles the SQLite repositories over one connection pool.
type Storage struct {
	*SnapshotRepository
	*StaffRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Storage)(nil)

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, config Config, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := Migrate(ctx, pool.DB(), config.MigrationsTable, logger); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return &Storage{
		SnapshotRepository: NewSnapshotRepository(pool),
		StaffRepository:    NewStaffRepository(pool),
		pool:               pool,
	}, nil
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
