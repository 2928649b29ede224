package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/civisos/internal/persistence"
)

// SnapshotRepository captures the persistence operations needed to load and
// store domain slices.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, name string) (persistence.Snapshot, error)
	PutSnapshot(ctx context.Context, snapshot persistence.Snapshot) error
}

// sliceStore serializes load, guard and save for one domain slice. Without a
// repository the state lives in the store itself.
type sliceStore[S any] struct {
	name    string
	repo    SnapshotRepository
	initial func() S
	now     func() time.Time

	mu      sync.Mutex
	current *S
}

func newSliceStore[S any](name string, repo SnapshotRepository, initial func() S, now func() time.Time) *sliceStore[S] {
	if initial == nil {
		initial = func() S {
			var zero S
			return zero
		}
	}
	return &sliceStore[S]{name: name, repo: repo, initial: initial, now: now}
}

// read returns the current state.
func (s *sliceStore[S]) read(ctx context.Context) (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// update applies fn to the current state and stores whatever state fn
// returns, including refused states that carry an error register. The
// error from fn is returned after a successful save.
func (s *sliceStore[S]) update(ctx context.Context, fn func(S) (S, error)) (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadLocked(ctx)
	if err != nil {
		return state, err
	}

	next, opErr := fn(state)
	if err := s.saveLocked(ctx, next); err != nil {
		return state, errors.Join(opErr, err)
	}
	return next, opErr
}

func (s *sliceStore[S]) loadLocked(ctx context.Context) (S, error) {
	if s.repo == nil {
		if s.current == nil {
			initial := s.initial()
			s.current = &initial
		}
		return *s.current, nil
	}

	snapshot, err := s.repo.GetSnapshot(ctx, s.name)
	if errors.Is(err, persistence.ErrNotFound) {
		return s.initial(), nil
	}
	if err != nil {
		var zero S
		return zero, fmt.Errorf("load %s snapshot: %w", s.name, err)
	}

	state := s.initial()
	if err := json.Unmarshal(snapshot.Payload, &state); err != nil {
		var zero S
		return zero, fmt.Errorf("decode %s snapshot: %w", s.name, err)
	}
	return state, nil
}

func (s *sliceStore[S]) saveLocked(ctx context.Context, state S) error {
	if s.repo == nil {
		s.current = &state
		return nil
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", s.name, err)
	}

	if err := s.repo.PutSnapshot(ctx, persistence.Snapshot{
		Name:      s.name,
		Payload:   payload,
		UpdatedAt: s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("store %s snapshot: %w", s.name, err)
	}
	return nil
}
