package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/civisos/internal/parking"
	"github.com/example/civisos/internal/persistence"
)

// ParkingService runs the parking guards against the stored parking slice.
type ParkingService struct {
	store  *sliceStore[parking.State]
	now    func() time.Time
	logger *slog.Logger
}

// NewParkingService constructs a parking service with the provided dependencies.
func NewParkingService(repo SnapshotRepository, now func() time.Time) *ParkingService {
	return NewParkingServiceWithLogger(repo, now, nil)
}

// NewParkingServiceWithLogger constructs a parking service with a specified logger.
func NewParkingServiceWithLogger(repo SnapshotRepository, now func() time.Time, logger *slog.Logger) *ParkingService {
	if now == nil {
		now = time.Now
	}
	return &ParkingService{
		store:  newSliceStore[parking.State](persistence.SliceParking, repo, nil, now),
		now:    now,
		logger: defaultLogger(logger),
	}
}

func (s *ParkingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ParkingService", operation, attrs...)
}

// AssignSpaceParams wraps the data required to place an occupant into a space.
type AssignSpaceParams struct {
	Principal  Principal
	SpaceID    string
	Assignment parking.Assignment
}

// SetSpaceStatusParams wraps the data required to change a space's status.
type SetSpaceStatusParams struct {
	Principal Principal
	SpaceID   string
	Status    string
	Reason    string
	Until     *time.Time
}

// State returns the parking slice including the last refusal message.
func (s *ParkingService) State(ctx context.Context, principal Principal) (parking.State, error) {
	if s == nil {
		return parking.State{}, fmt.Errorf("ParkingService is nil")
	}
	if err := authorize(principal, RoleResident); err != nil {
		return parking.State{}, err
	}
	return s.store.read(ctx)
}

// Stats counts spaces per status.
func (s *ParkingService) Stats(ctx context.Context, principal Principal) (parking.Stats, error) {
	state, err := s.State(ctx, principal)
	if err != nil {
		return parking.Stats{}, err
	}
	return state.Stats(), nil
}

// AssignSpace assigns an available space to a resident.
func (s *ParkingService) AssignSpace(ctx context.Context, params AssignSpaceParams) (space parking.Space, err error) {
	if s == nil {
		err = fmt.Errorf("ParkingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AssignSpace",
		"staff", params.Principal.StaffName,
		"space_id", params.SpaceID,
		"resident_id", params.Assignment.ResidentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign space", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "space assigned")
	}()

	if err = authorize(params.Principal, RoleStaff); err != nil {
		return
	}

	assignment := params.Assignment
	if assignment.StartTime == nil {
		start := s.now()
		assignment.StartTime = &start
	}

	space, err = s.apply(ctx, params.SpaceID, func(state parking.State) (parking.State, error) {
		return state.Assign(params.SpaceID, assignment)
	})
	return
}

// ReleaseSpace frees an occupied space.
func (s *ParkingService) ReleaseSpace(ctx context.Context, principal Principal, spaceID string) (space parking.Space, err error) {
	if s == nil {
		err = fmt.Errorf("ParkingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ReleaseSpace",
		"staff", principal.StaffName,
		"space_id", spaceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to release space", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "space released")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	space, err = s.apply(ctx, spaceID, func(state parking.State) (parking.State, error) {
		return state.Release(spaceID)
	})
	return
}

// SetSpaceStatus reserves a space, puts it under maintenance, or makes it
// available again.
func (s *ParkingService) SetSpaceStatus(ctx context.Context, params SetSpaceStatusParams) (space parking.Space, err error) {
	if s == nil {
		err = fmt.Errorf("ParkingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetSpaceStatus",
		"staff", params.Principal.StaffName,
		"space_id", params.SpaceID,
		"status", params.Status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set space status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "space status changed")
	}()

	if err = authorize(params.Principal, RoleStaff); err != nil {
		return
	}

	var status parking.Status
	status, err = parking.ParseStatus(params.Status)
	if err != nil {
		err = mapDomainError(err)
		return
	}

	space, err = s.apply(ctx, params.SpaceID, func(state parking.State) (parking.State, error) {
		return state.SetStatus(params.SpaceID, status, params.Reason, params.Until)
	})
	return
}

// UpsertSpace registers or replaces a space definition.
func (s *ParkingService) UpsertSpace(ctx context.Context, principal Principal, space parking.Space) (err error) {
	if s == nil {
		return fmt.Errorf("ParkingService is nil")
	}

	logger := s.loggerWith(ctx, "UpsertSpace",
		"staff", principal.StaffName,
		"space_id", space.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert space", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "space upserted")
	}()

	if err = authorize(principal, RoleManager); err != nil {
		return
	}
	if space.ID == "" {
		vErr := &ValidationError{}
		vErr.add("id", "id is required")
		err = vErr
		return
	}

	_, err = s.store.update(ctx, func(state parking.State) (parking.State, error) {
		return state.Upsert(space), nil
	})
	return
}

func (s *ParkingService) apply(ctx context.Context, spaceID string, fn func(parking.State) (parking.State, error)) (parking.Space, error) {
	next, err := s.store.update(ctx, fn)
	if err != nil {
		return parking.Space{}, mapDomainError(err)
	}
	space, _ := next.Space(spaceID)
	return space, nil
}
