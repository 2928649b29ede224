package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/civisos/internal/persistence"
)

// SnapshotRepository implements persistence.SnapshotRepository using SQLite
type SnapshotRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewSnapshotRepository creates a new SQLite snapshot repository
func NewSnapshotRepository(pool *ConnectionPool) *SnapshotRepository {
	return &SnapshotRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// GetSnapshot loads the document stored for a slice.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, name string) (persistence.Snapshot, error) {
	if name == "" {
		return persistence.Snapshot{}, persistence.ErrNotFound
	}

	query := `
		SELECT name, payload, version, updated_at
		FROM slice_snapshots
		WHERE name = ?
	`

	var snapshot persistence.Snapshot
	var updatedAt string
	err := r.pool.DB().QueryRowContext(ctx, query, name).Scan(
		&snapshot.Name,
		&snapshot.Payload,
		&snapshot.Version,
		&updatedAt,
	)
	if err != nil {
		return persistence.Snapshot{}, r.mapper.MapError(err)
	}

	if snapshot.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Snapshot{}, err
	}

	return snapshot, nil
}

// PutSnapshot upserts the slice document and increments its version.
func (r *SnapshotRepository) PutSnapshot(ctx context.Context, snapshot persistence.Snapshot) error {
	if snapshot.Name == "" || snapshot.Payload == nil {
		return persistence.ErrConstraintViolation
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO slice_snapshots (name, payload, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			version = slice_snapshots.version + 1,
			updated_at = excluded.updated_at
	`

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, query,
			snapshot.Name,
			snapshot.Payload,
			formatTime(snapshot.UpdatedAt),
		)
		return err
	})
}

// ListSnapshots returns every stored slice ordered by name.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context) ([]persistence.Snapshot, error) {
	query := `
		SELECT name, payload, version, updated_at
		FROM slice_snapshots
		ORDER BY name
	`

	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	snapshots := make([]persistence.Snapshot, 0)
	for rows.Next() {
		var snapshot persistence.Snapshot
		var updatedAt string
		if err := rows.Scan(&snapshot.Name, &snapshot.Payload, &snapshot.Version, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if snapshot.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return snapshots, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}
