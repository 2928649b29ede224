package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/civisos/internal/facility"
	"github.com/example/civisos/internal/persistence"
)

// FacilityService runs the booking guard and lifecycle against the stored
// facility slice.
type FacilityService struct {
	store       *sliceStore[facility.State]
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewFacilityService constructs a facility service with the provided dependencies.
func NewFacilityService(repo SnapshotRepository, idGenerator func() string, now func() time.Time) *FacilityService {
	return NewFacilityServiceWithLogger(repo, idGenerator, now, nil)
}

// NewFacilityServiceWithLogger constructs a facility service with a specified logger.
func NewFacilityServiceWithLogger(repo SnapshotRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FacilityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &FacilityService{
		store:       newSliceStore[facility.State](persistence.SliceFacility, repo, nil, now),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *FacilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FacilityService", operation, attrs...)
}

// CreateBookingParams wraps the data required to book a facility.
type CreateBookingParams struct {
	Principal Principal
	Booking   facility.Booking
}

// BookingTransition names a lifecycle step applied to an existing booking.
type BookingTransition string

const (
	TransitionApprove  BookingTransition = "approve"
	TransitionReject   BookingTransition = "reject"
	TransitionCancel   BookingTransition = "cancel"
	TransitionComplete BookingTransition = "complete"
	TransitionDelete   BookingTransition = "delete"
)

// State returns the facility slice including the last refusal message.
func (s *FacilityService) State(ctx context.Context, principal Principal) (facility.State, error) {
	if s == nil {
		return facility.State{}, fmt.Errorf("FacilityService is nil")
	}
	if err := authorize(principal, RoleResident); err != nil {
		return facility.State{}, err
	}
	return s.store.read(ctx)
}

// Stats summarises bookings relative to the current day.
func (s *FacilityService) Stats(ctx context.Context, principal Principal) (facility.Stats, error) {
	state, err := s.State(ctx, principal)
	if err != nil {
		return facility.Stats{}, err
	}
	return state.Stats(s.now().Format(time.DateOnly)), nil
}

// CreateBooking books a facility slot when it does not overlap an active
// booking of the same facility and day.
func (s *FacilityService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking facility.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("FacilityService is nil")
		return
	}

	booking = params.Booking
	if booking.ID == "" {
		booking.ID = s.idGenerator()
	}
	if booking.StaffName == "" {
		booking.StaffName = params.Principal.StaffName
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"staff", params.Principal.StaffName,
		"booking_id", booking.ID,
		"facility_id", booking.FacilityID,
		"date", booking.BookingDate,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"start", booking.StartTime.String(),
			"end", booking.EndTime.String(),
		).InfoContext(ctx, "booking created")
	}()

	if err = authorize(params.Principal, RoleStaff); err != nil {
		return
	}

	var next facility.State
	next, err = s.store.update(ctx, func(state facility.State) (facility.State, error) {
		if f, ok := state.Facility(booking.FacilityID); ok && !f.Available {
			return state, fmt.Errorf("%w: %s", facility.ErrFacilityUnavailable, f.ID)
		}
		return state.CreateBooking(booking, s.now())
	})
	if err != nil {
		err = mapDomainError(err)
		return
	}

	booking, _ = next.Booking(booking.ID)
	return
}

// SetPaymentStatus records the payment status of an active booking.
func (s *FacilityService) SetPaymentStatus(ctx context.Context, principal Principal, bookingID, status string) (booking facility.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("FacilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetPaymentStatus",
		"staff", principal.StaffName,
		"booking_id", bookingID,
		"payment_status", status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set payment status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "payment status updated")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	var parsed facility.PaymentStatus
	parsed, err = facility.ParsePaymentStatus(status)
	if err != nil {
		err = mapDomainError(err)
		return
	}

	booking, err = s.apply(ctx, bookingID, func(state facility.State) (facility.State, error) {
		return state.SetPaymentStatus(bookingID, parsed, s.now())
	})
	return
}

// Transition applies a lifecycle step. Approve, reject and delete need a
// manager; cancel and complete are open to staff.
func (s *FacilityService) Transition(ctx context.Context, principal Principal, bookingID string, transition BookingTransition) (booking facility.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("FacilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Transition",
		"staff", principal.StaffName,
		"booking_id", bookingID,
		"transition", string(transition),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to transition booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_status", string(booking.BookingStatus)).InfoContext(ctx, "booking transitioned")
	}()

	var (
		required Role
		step     func(facility.State, string, time.Time) (facility.State, error)
	)
	switch transition {
	case TransitionApprove:
		required, step = RoleManager, facility.State.Approve
	case TransitionReject:
		required, step = RoleManager, facility.State.Reject
	case TransitionCancel:
		required, step = RoleStaff, facility.State.Cancel
	case TransitionComplete:
		required, step = RoleStaff, facility.State.Complete
	case TransitionDelete:
		required, step = RoleManager, facility.State.Delete
	default:
		err = fmt.Errorf("%w: unknown transition %q", ErrNotFound, transition)
		return
	}

	if err = authorize(principal, required); err != nil {
		return
	}

	booking, err = s.apply(ctx, bookingID, func(state facility.State) (facility.State, error) {
		return step(state, bookingID, s.now())
	})
	return
}

// UpsertFacility registers or replaces a bookable facility.
func (s *FacilityService) UpsertFacility(ctx context.Context, principal Principal, f facility.Facility) (err error) {
	if s == nil {
		return fmt.Errorf("FacilityService is nil")
	}

	logger := s.loggerWith(ctx, "UpsertFacility",
		"staff", principal.StaffName,
		"facility_id", f.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert facility", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "facility upserted")
	}()

	if err = authorize(principal, RoleManager); err != nil {
		return
	}
	if f.ID == "" || f.Name == "" {
		vErr := &ValidationError{}
		if f.ID == "" {
			vErr.add("id", "id is required")
		}
		if f.Name == "" {
			vErr.add("name", "name is required")
		}
		err = vErr
		return
	}

	_, err = s.store.update(ctx, func(state facility.State) (facility.State, error) {
		return state.UpsertFacility(f), nil
	})
	return
}

func (s *FacilityService) apply(ctx context.Context, bookingID string, fn func(facility.State) (facility.State, error)) (facility.Booking, error) {
	next, err := s.store.update(ctx, fn)
	if err != nil {
		return facility.Booking{}, mapDomainError(err)
	}
	booking, _ := next.Booking(bookingID)
	return booking, nil
}
