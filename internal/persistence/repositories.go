package persistence

import "context"

// SnapshotRepository stores one JSON document per domain slice.
type SnapshotRepository interface {
	// GetSnapshot returns ErrNotFound when the slice was never stored.
	GetSnapshot(ctx context.Context, name string) (Snapshot, error)
	// PutSnapshot replaces the slice document and bumps its version.
	PutSnapshot(ctx context.Context, snapshot Snapshot) error
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
}

// StaffRepository exposes CRUD operations for staff accounts.
type StaffRepository interface {
	CreateStaff(ctx context.Context, staff Staff) error
	UpdateStaff(ctx context.Context, staff Staff) error
	GetStaff(ctx context.Context, name string) (Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
}

// Store bundles the repositories a backend provides.
type Store interface {
	SnapshotRepository
	StaffRepository
	Close() error
}
