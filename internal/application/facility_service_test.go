package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/facility"
	"github.com/example/civisos/internal/persistence/memory"
	"github.com/example/civisos/internal/scheduler"
)

func newFacilityFixture(t *testing.T) *FacilityService {
	t.Helper()

	svc := NewFacilityService(memory.Open(), sequentialIDs("bk"), fixedClock())
	err := svc.UpsertFacility(context.Background(), managerPrincipal, facility.Facility{
		ID:         "gym",
		Name:       "Gym",
		HourlyRate: decimal.NewFromInt(200),
		Available:  true,
	})
	if err != nil {
		t.Fatalf("UpsertFacility returned error: %v", err)
	}
	return svc
}

func gymBooking(startHour, endHour int) facility.Booking {
	return facility.Booking{
		FacilityID:   "gym",
		BookingType:  facility.BookingResident,
		ResidentName: "Chen",
		BookingDate:  "2026-03-20",
		StartTime:    scheduler.NewClock(startHour, 0),
		EndTime:      scheduler.NewClock(endHour, 0),
		Fee:          decimal.NewFromInt(400),
	}
}

func TestFacilityService_CreateBooking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newFacilityFixture(t)

	first, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: gymBooking(9, 11)})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	if first.ID != "bk-1" || first.StaffName != "sam" {
		t.Fatalf("expected generated id and staff name, got %+v", first)
	}
	if first.BookingStatus != facility.StatusConfirmed || first.PaymentStatus != facility.PaymentUnpaid {
		t.Fatalf("expected confirmed unpaid booking, got %s/%s", first.BookingStatus, first.PaymentStatus)
	}
	if !first.CreatedAt.Equal(testNow) {
		t.Fatalf("expected CreatedAt from clock, got %v", first.CreatedAt)
	}

	_, err = svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: gymBooking(10, 12)})
	if !errors.Is(err, ErrConflict) || !errors.Is(err, facility.ErrSlotTaken) {
		t.Fatalf("expected overlapping booking to conflict, got %v", err)
	}

	state, err := svc.State(ctx, residentPrincipal)
	if err != nil {
		t.Fatalf("State returned error: %v", err)
	}
	if state.Error == "" {
		t.Fatalf("expected refusal to be stored in the register")
	}

	if _, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: gymBooking(11, 13)}); err != nil {
		t.Fatalf("expected adjacent booking to succeed, got %v", err)
	}

	state, err = svc.State(ctx, residentPrincipal)
	if err != nil {
		t.Fatalf("State returned error: %v", err)
	}
	if state.Error != "" {
		t.Fatalf("expected register cleared by success, got %q", state.Error)
	}
	if len(state.Bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(state.Bookings))
	}
}

func TestFacilityService_CreateBookingValidation(t *testing.T) {
	t.Parallel()

	svc := newFacilityFixture(t)
	booking := gymBooking(14, 12)
	booking.BookingDate = "20/03/2026"

	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{Principal: staffPrincipal, Booking: booking})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"endTime", "bookingDate"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s field error, got %#v", field, vErr.FieldErrors)
		}
	}
}

func TestFacilityService_CreateBookingFacilityRegistry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unregistered facility is accepted", func(t *testing.T) {
		t.Parallel()

		svc := NewFacilityService(memory.Open(), sequentialIDs("bk"), fixedClock())
		booking := gymBooking(9, 11)
		booking.FacilityID = "facility-1"
		booking.ResidentName = ""

		if _, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: booking}); err != nil {
			t.Fatalf("expected booking without a registered facility to succeed, got %v", err)
		}
	})

	t.Run("registered but unavailable facility is refused", func(t *testing.T) {
		t.Parallel()

		svc := newFacilityFixture(t)
		if err := svc.UpsertFacility(ctx, managerPrincipal, facility.Facility{ID: "gym", Name: "Gym", Available: false}); err != nil {
			t.Fatalf("UpsertFacility returned error: %v", err)
		}

		_, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: gymBooking(9, 11)})
		if !errors.Is(err, ErrConflict) || !errors.Is(err, facility.ErrFacilityUnavailable) {
			t.Fatalf("expected unavailable facility to conflict, got %v", err)
		}

		state, err := svc.State(ctx, residentPrincipal)
		if err != nil {
			t.Fatalf("State returned error: %v", err)
		}
		if len(state.Bookings) != 0 {
			t.Fatalf("expected no bookings, got %d", len(state.Bookings))
		}
	})
}

func TestFacilityService_Transition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("approve needs a manager", func(t *testing.T) {
		t.Parallel()

		svc := newFacilityFixture(t)
		pending := gymBooking(9, 10)
		pending.BookingStatus = facility.StatusPendingApproval
		booking, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: pending})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}

		if _, err := svc.Transition(ctx, staffPrincipal, booking.ID, TransitionApprove); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		approved, err := svc.Transition(ctx, managerPrincipal, booking.ID, TransitionApprove)
		if err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}
		if approved.BookingStatus != facility.StatusConfirmed {
			t.Fatalf("expected confirmed booking, got %s", approved.BookingStatus)
		}
	})

	t.Run("cancel refunds and frees the slot", func(t *testing.T) {
		t.Parallel()

		svc := newFacilityFixture(t)
		booking, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: gymBooking(9, 11)})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}

		cancelled, err := svc.Transition(ctx, staffPrincipal, booking.ID, TransitionCancel)
		if err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}
		if cancelled.BookingStatus != facility.StatusCancelled || cancelled.PaymentStatus != facility.PaymentRefunded {
			t.Fatalf("unexpected cancelled booking %+v", cancelled)
		}

		if _, err := svc.SetPaymentStatus(ctx, staffPrincipal, booking.ID, "paid"); !errors.Is(err, facility.ErrBookingCancelled) {
			t.Fatalf("expected cancelled booking to refuse payment, got %v", err)
		}

		if _, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: gymBooking(9, 11)}); err != nil {
			t.Fatalf("expected freed slot to be bookable, got %v", err)
		}
	})

	t.Run("complete only from confirmed", func(t *testing.T) {
		t.Parallel()

		svc := newFacilityFixture(t)
		booking, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: gymBooking(9, 11)})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
		if _, err := svc.Transition(ctx, staffPrincipal, booking.ID, TransitionComplete); err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}
		if _, err := svc.Transition(ctx, staffPrincipal, booking.ID, TransitionCancel); !errors.Is(err, facility.ErrInvalidTransition) {
			t.Fatalf("expected completed booking to refuse cancel, got %v", err)
		}
	})

	t.Run("unknown transition and booking", func(t *testing.T) {
		t.Parallel()

		svc := newFacilityFixture(t)
		if _, err := svc.Transition(ctx, adminPrincipal, "bk-1", "archive"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown transition, got %v", err)
		}
		if _, err := svc.Transition(ctx, adminPrincipal, "missing", TransitionDelete); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown booking, got %v", err)
		}
	})
}

func TestFacilityService_StatsAndPayments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newFacilityFixture(t)

	today := gymBooking(9, 10)
	today.BookingDate = testNow.Format("2006-01-02")
	booking, err := svc.CreateBooking(ctx, CreateBookingParams{Principal: staffPrincipal, Booking: today})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	paid, err := svc.SetPaymentStatus(ctx, staffPrincipal, booking.ID, "paid")
	if err != nil {
		t.Fatalf("SetPaymentStatus returned error: %v", err)
	}
	if paid.PaymentStatus != facility.PaymentPaid {
		t.Fatalf("expected paid booking, got %s", paid.PaymentStatus)
	}

	var vErr *ValidationError
	if _, err := svc.SetPaymentStatus(ctx, staffPrincipal, booking.ID, "waived"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for unknown payment status, got %v", err)
	}

	stats, err := svc.Stats(ctx, residentPrincipal)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TodayBookings != 1 || !stats.TotalRevenue.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
