package facility

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// State is the facility slice. Error holds the message of the last refused
// operation and is cleared by the next successful one.
type State struct {
	Facilities []Facility `json:"facilities"`
	Bookings   []Booking  `json:"bookings"`
	Error      string     `json:"error,omitempty"`
}

// Stats summarises bookings for the overview page.
type Stats struct {
	TotalFacilities     int             `json:"totalFacilities"`
	AvailableFacilities int             `json:"availableFacilities"`
	TotalBookings       int             `json:"totalBookings"`
	TodayBookings       int             `json:"todayBookings"`
	ConfirmedBookings   int             `json:"confirmedBookings"`
	PendingBookings     int             `json:"pendingBookings"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
}

func (s State) clone() State {
	s.Facilities = slices.Clone(s.Facilities)
	s.Bookings = slices.Clone(s.Bookings)
	return s
}

func (s State) refuse(err error) (State, error) {
	next := s.clone()
	next.Error = err.Error()
	return next, err
}

func (s State) bookingIndex(id string) int {
	return slices.IndexFunc(s.Bookings, func(b Booking) bool { return b.ID == id })
}

// Booking returns the booking with the given id.
func (s State) Booking(id string) (Booking, bool) {
	i := s.bookingIndex(id)
	if i < 0 {
		return Booking{}, false
	}
	return s.Bookings[i], true
}

// Facility returns the facility with the given id.
func (s State) Facility(id string) (Facility, bool) {
	i := slices.IndexFunc(s.Facilities, func(f Facility) bool { return f.ID == id })
	if i < 0 {
		return Facility{}, false
	}
	return s.Facilities[i], true
}

// ActiveBookings returns the bookings that take part in conflict checks.
func (s State) ActiveBookings() []Booking {
	var active []Booking
	for _, b := range s.Bookings {
		if b.BookingStatus.Active() {
			active = append(active, b)
		}
	}
	return active
}

// UpsertFacility inserts or replaces a facility by id.
func (s State) UpsertFacility(f Facility) State {
	next := s.clone()
	if i := slices.IndexFunc(next.Facilities, func(x Facility) bool { return x.ID == f.ID }); i >= 0 {
		next.Facilities[i] = f
	} else {
		next.Facilities = append(next.Facilities, f)
	}
	return next
}

// CreateBooking validates b, rejects it when it overlaps an active booking of
// the same facility and date, and otherwise appends it. The facility does not
// have to be registered. Missing statuses default to confirmed and unpaid.
func (s State) CreateBooking(b Booking, now time.Time) (State, error) {
	if b.BookingType == "" {
		b.BookingType = BookingResident
	}
	if b.BookingStatus == "" {
		b.BookingStatus = StatusConfirmed
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = PaymentUnpaid
	}
	if errs := ValidateBooking(b); len(errs) > 0 {
		return s.refuse(errs)
	}
	if !b.BookingStatus.Active() {
		return s.refuse(fmt.Errorf("%w: new booking cannot start as %s", ErrInvalidTransition, b.BookingStatus))
	}
	if !b.PaymentStatus.Valid() {
		return s.refuse(fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, b.PaymentStatus))
	}
	if s.bookingIndex(b.ID) >= 0 {
		return s.refuse(fmt.Errorf("%w: %s", ErrDuplicateBooking, b.ID))
	}
	if err := CheckConflicts(b, s.Bookings); err != nil {
		return s.refuse(err)
	}

	b.CreatedAt = now
	b.UpdatedAt = now
	next := s.clone()
	next.Bookings = append(next.Bookings, b)
	next.Error = ""
	return next, nil
}

// SetPaymentStatus updates the payment status of an active booking.
func (s State) SetPaymentStatus(id string, status PaymentStatus, now time.Time) (State, error) {
	if !status.Valid() {
		return s.refuse(fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, status))
	}
	return s.update(id, now, func(b *Booking) error {
		if err := b.refusal(); err != nil {
			return err
		}
		b.PaymentStatus = status
		return nil
	})
}

// Approve confirms a booking awaiting approval.
func (s State) Approve(id string, now time.Time) (State, error) {
	return s.update(id, now, func(b *Booking) error {
		if err := b.refusal(); err != nil {
			return err
		}
		if b.BookingStatus != StatusPendingApproval {
			return fmt.Errorf("%w: cannot approve %s booking", ErrInvalidTransition, b.BookingStatus)
		}
		b.BookingStatus = StatusConfirmed
		return nil
	})
}

// Reject cancels a booking awaiting approval.
func (s State) Reject(id string, now time.Time) (State, error) {
	return s.update(id, now, func(b *Booking) error {
		if err := b.refusal(); err != nil {
			return err
		}
		if b.BookingStatus != StatusPendingApproval {
			return fmt.Errorf("%w: cannot reject %s booking", ErrInvalidTransition, b.BookingStatus)
		}
		b.BookingStatus = StatusCancelled
		return nil
	})
}

// Cancel cancels a booking and marks its payment refunded.
func (s State) Cancel(id string, now time.Time) (State, error) {
	return s.update(id, now, func(b *Booking) error {
		if err := b.refusal(); err != nil {
			return err
		}
		if b.BookingStatus == StatusCompleted {
			return fmt.Errorf("%w: cannot cancel completed booking", ErrInvalidTransition)
		}
		b.BookingStatus = StatusCancelled
		b.PaymentStatus = PaymentRefunded
		return nil
	})
}

// Complete marks a confirmed booking as used.
func (s State) Complete(id string, now time.Time) (State, error) {
	return s.update(id, now, func(b *Booking) error {
		if err := b.refusal(); err != nil {
			return err
		}
		if b.BookingStatus != StatusConfirmed {
			return fmt.Errorf("%w: cannot complete %s booking", ErrInvalidTransition, b.BookingStatus)
		}
		b.BookingStatus = StatusCompleted
		return nil
	})
}

// Delete soft-deletes a booking. Cancelled bookings may still be deleted.
func (s State) Delete(id string, now time.Time) (State, error) {
	return s.update(id, now, func(b *Booking) error {
		if b.BookingStatus == StatusDeleted {
			return ErrBookingDeleted
		}
		b.BookingStatus = StatusDeleted
		return nil
	})
}

func (s State) update(id string, now time.Time, apply func(*Booking) error) (State, error) {
	i := s.bookingIndex(id)
	if i < 0 {
		return s.refuse(fmt.Errorf("%w: %s", ErrBookingNotFound, id))
	}
	b := s.Bookings[i]
	if err := apply(&b); err != nil {
		return s.refuse(err)
	}
	b.UpdatedAt = now
	next := s.clone()
	next.Bookings[i] = b
	next.Error = ""
	return next, nil
}

// Stats counts facilities and bookings. Revenue sums the fees of paid
// bookings; today is a YYYY-MM-DD date.
func (s State) Stats(today string) Stats {
	stats := Stats{TotalFacilities: len(s.Facilities), TotalRevenue: decimal.Zero}
	for _, f := range s.Facilities {
		if f.Available {
			stats.AvailableFacilities++
		}
	}
	for _, b := range s.Bookings {
		if b.BookingStatus == StatusDeleted {
			continue
		}
		stats.TotalBookings++
		if b.BookingDate == today && b.BookingStatus.Active() {
			stats.TodayBookings++
		}
		switch b.BookingStatus {
		case StatusConfirmed:
			stats.ConfirmedBookings++
		case StatusPendingApproval:
			stats.PendingBookings++
		}
		if b.PaymentStatus == PaymentPaid {
			stats.TotalRevenue = stats.TotalRevenue.Add(b.Fee)
		}
	}
	return stats
}
