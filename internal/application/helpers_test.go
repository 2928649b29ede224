package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/civisos/internal/persistence"
)

var (
	adminPrincipal    = Principal{StaffName: "ada", Role: RoleAdmin}
	managerPrincipal  = Principal{StaffName: "mei", Role: RoleManager}
	staffPrincipal    = Principal{StaffName: "sam", Role: RoleStaff}
	residentPrincipal = Principal{StaffName: "rui", Role: RoleResident}
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// snapshotRepoStub keeps snapshots in a map and counts writes.
type snapshotRepoStub struct {
	mu        sync.Mutex
	snapshots map[string]persistence.Snapshot
	puts      int
	getErr    error
	putErr    error
}

func newSnapshotRepoStub() *snapshotRepoStub {
	return &snapshotRepoStub{snapshots: make(map[string]persistence.Snapshot)}
}

func (r *snapshotRepoStub) GetSnapshot(ctx context.Context, name string) (persistence.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return persistence.Snapshot{}, r.getErr
	}
	snapshot, ok := r.snapshots[name]
	if !ok {
		return persistence.Snapshot{}, persistence.ErrNotFound
	}
	return snapshot, nil
}

func (r *snapshotRepoStub) PutSnapshot(ctx context.Context, snapshot persistence.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.puts++
	snapshot.Version = r.snapshots[snapshot.Name].Version + 1
	r.snapshots[snapshot.Name] = snapshot
	return nil
}

type staffRepoStub struct {
	mu      sync.Mutex
	records map[string]persistence.Staff
	listErr error
}

func newStaffRepoStub(records ...persistence.Staff) *staffRepoStub {
	repo := &staffRepoStub{records: make(map[string]persistence.Staff)}
	for _, record := range records {
		repo.records[record.Name] = record
	}
	return repo
}

func (r *staffRepoStub) CreateStaff(ctx context.Context, staff persistence.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[staff.Name]; ok {
		return fmt.Errorf("staff %s: %w", staff.Name, persistence.ErrDuplicate)
	}
	r.records[staff.Name] = staff
	return nil
}

func (r *staffRepoStub) UpdateStaff(ctx context.Context, staff persistence.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[staff.Name]; !ok {
		return persistence.ErrNotFound
	}
	r.records[staff.Name] = staff
	return nil
}

func (r *staffRepoStub) GetStaff(ctx context.Context, name string) (persistence.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[name]
	if !ok {
		return persistence.Staff{}, persistence.ErrNotFound
	}
	return record, nil
}

func (r *staffRepoStub) ListStaff(ctx context.Context) ([]persistence.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]persistence.Staff, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

var errStoreDown = errors.New("store down")
