// Package memory provides an in-process persistence backend used when no
// database is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/civisos/internal/persistence"
)

// Storage keeps snapshots and staff accounts in maps guarded by a mutex.
type Storage struct {
	mu        sync.RWMutex
	snapshots map[string]persistence.Snapshot
	staff     map[string]persistence.Staff
	now       func() time.Time
}

var _ persistence.Store = (*Storage)(nil)

// Open returns an empty Storage.
func Open() *Storage {
	return &Storage{
		snapshots: make(map[string]persistence.Snapshot),
		staff:     make(map[string]persistence.Staff),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- SnapshotRepository implementation ---

// GetSnapshot retrieves the stored document for a slice.
func (s *Storage) GetSnapshot(ctx context.Context, name string) (persistence.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[name]
	if !ok {
		return persistence.Snapshot{}, persistence.ErrNotFound
	}

	return cloneSnapshot(snapshot), nil
}

// PutSnapshot stores the document for a slice, replacing any previous one.
func (s *Storage) PutSnapshot(ctx context.Context, snapshot persistence.Snapshot) error {
	if snapshot.Name == "" {
		return fmt.Errorf("memory: snapshot name is empty: %w", persistence.ErrConstraintViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.Version = s.snapshots[snapshot.Name].Version + 1
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = s.now()
	}
	s.snapshots[snapshot.Name] = cloneSnapshot(snapshot)
	return nil
}

// ListSnapshots returns all snapshots ordered by name.
func (s *Storage) ListSnapshots(ctx context.Context) ([]persistence.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make([]persistence.Snapshot, 0, len(s.snapshots))
	for _, snapshot := range s.snapshots {
		snapshots = append(snapshots, cloneSnapshot(snapshot))
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name < snapshots[j].Name
	})

	return snapshots, nil
}

// --- StaffRepository implementation ---

// CreateStaff stores a new staff account.
func (s *Storage) CreateStaff(ctx context.Context, staff persistence.Staff) error {
	if staff.Name == "" {
		return fmt.Errorf("memory: staff name is empty: %w", persistence.ErrConstraintViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.staff[staff.Name]; ok {
		return fmt.Errorf("memory: staff %s already exists: %w", staff.Name, persistence.ErrDuplicate)
	}

	now := s.now()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	if staff.UpdatedAt.IsZero() {
		staff.UpdatedAt = staff.CreatedAt
	}
	s.staff[staff.Name] = staff
	return nil
}

// UpdateStaff updates an existing staff account.
func (s *Storage) UpdateStaff(ctx context.Context, staff persistence.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.staff[staff.Name]
	if !ok {
		return persistence.ErrNotFound
	}

	staff.CreatedAt = existing.CreatedAt
	staff.UpdatedAt = s.now()
	s.staff[staff.Name] = staff
	return nil
}

// GetStaff retrieves a staff account by name.
func (s *Storage) GetStaff(ctx context.Context, name string) (persistence.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staff, ok := s.staff[name]
	if !ok {
		return persistence.Staff{}, persistence.ErrNotFound
	}

	return staff, nil
}

// ListStaff returns all staff accounts ordered by name.
func (s *Storage) ListStaff(ctx context.Context) ([]persistence.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]persistence.Staff, 0, len(s.staff))
	for _, staff := range s.staff {
		accounts = append(accounts, staff)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Name < accounts[j].Name
	})

	return accounts, nil
}

func cloneSnapshot(snapshot persistence.Snapshot) persistence.Snapshot {
	if snapshot.Payload != nil {
		payload := make([]byte, len(snapshot.Payload))
		copy(payload, snapshot.Payload)
		snapshot.Payload = payload
	}
	return snapshot
}
