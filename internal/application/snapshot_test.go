package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/civisos/internal/persistence"
	"github.com/example/civisos/internal/persistence/memory"
)

type counterState struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

func TestSliceStore_StartsFromInitialState(t *testing.T) {
	t.Parallel()

	store := newSliceStore("counter", memory.Open(), func() counterState { return counterState{Count: 10} }, fixedClock())

	state, err := store.read(context.Background())
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if state.Count != 10 {
		t.Fatalf("expected initial count 10, got %d", state.Count)
	}
}

func TestSliceStore_PersistsAcrossStores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.Open()

	first := newSliceStore[counterState]("counter", repo, nil, fixedClock())
	if _, err := first.update(ctx, func(s counterState) (counterState, error) {
		s.Count += 3
		return s, nil
	}); err != nil {
		t.Fatalf("update returned error: %v", err)
	}

	second := newSliceStore[counterState]("counter", repo, nil, fixedClock())
	state, err := second.read(ctx)
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if state.Count != 3 {
		t.Fatalf("expected persisted count 3, got %d", state.Count)
	}

	snapshot, err := repo.GetSnapshot(ctx, "counter")
	if err != nil {
		t.Fatalf("GetSnapshot returned error: %v", err)
	}
	if !snapshot.UpdatedAt.Equal(testNow) {
		t.Fatalf("expected snapshot stamped with clock, got %v", snapshot.UpdatedAt)
	}
}

func TestSliceStore_SavesRefusedState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSnapshotRepoStub()
	store := newSliceStore[counterState]("counter", repo, nil, fixedClock())
	refused := errors.New("refused")

	_, err := store.update(ctx, func(s counterState) (counterState, error) {
		s.Error = refused.Error()
		return s, refused
	})
	if !errors.Is(err, refused) {
		t.Fatalf("expected guard error, got %v", err)
	}
	if repo.puts != 1 {
		t.Fatalf("expected refused state to be written once, got %d writes", repo.puts)
	}

	state, err := store.read(ctx)
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if state.Error != "refused" {
		t.Fatalf("expected error register to survive, got %q", state.Error)
	}
}

func TestSliceStore_RepositoryErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("load failure skips the guard", func(t *testing.T) {
		t.Parallel()

		repo := newSnapshotRepoStub()
		repo.getErr = errStoreDown
		store := newSliceStore[counterState]("counter", repo, nil, fixedClock())

		called := false
		_, err := store.update(ctx, func(s counterState) (counterState, error) {
			called = true
			return s, nil
		})
		if !errors.Is(err, errStoreDown) {
			t.Fatalf("expected load error, got %v", err)
		}
		if called {
			t.Fatalf("expected guard not to run")
		}
	})

	t.Run("save failure is joined with guard error", func(t *testing.T) {
		t.Parallel()

		repo := newSnapshotRepoStub()
		repo.putErr = errStoreDown
		store := newSliceStore[counterState]("counter", repo, nil, fixedClock())
		refused := errors.New("refused")

		_, err := store.update(ctx, func(s counterState) (counterState, error) {
			return s, refused
		})
		if !errors.Is(err, refused) || !errors.Is(err, errStoreDown) {
			t.Fatalf("expected both errors in chain, got %v", err)
		}
	})

	t.Run("corrupt payload is reported", func(t *testing.T) {
		t.Parallel()

		repo := newSnapshotRepoStub()
		repo.snapshots["counter"] = persistence.Snapshot{Name: "counter", Payload: []byte("{not json")}
		store := newSliceStore[counterState]("counter", repo, nil, fixedClock())

		if _, err := store.read(ctx); err == nil {
			t.Fatalf("expected decode error")
		}
	})
}

func TestSliceStore_InMemoryWithoutRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newSliceStore[counterState]("counter", nil, nil, fixedClock())

	for i := 0; i < 5; i++ {
		if _, err := store.update(ctx, func(s counterState) (counterState, error) {
			s.Count++
			return s, nil
		}); err != nil {
			t.Fatalf("update returned error: %v", err)
		}
	}

	state, err := store.read(ctx)
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if state.Count != 5 {
		t.Fatalf("expected count 5, got %d", state.Count)
	}
}
