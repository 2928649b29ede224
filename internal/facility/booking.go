// Package facility guards facility bookings: slot conflicts, payment updates
// and the booking lifecycle.
package facility

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/scheduler"
)

var (
	ErrSlotTaken            = errors.New("time slot already booked")
	ErrBookingCancelled     = errors.New("booking is cancelled")
	ErrBookingDeleted       = errors.New("booking is deleted")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrDuplicateBooking     = errors.New("booking already exists")
	ErrFacilityUnavailable  = errors.New("facility unavailable")
	ErrInvalidTransition    = errors.New("invalid booking transition")
	ErrInvalidBookingStatus = errors.New("invalid booking status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed       BookingStatus = "confirmed"
	StatusPendingApproval BookingStatus = "pending_approval"
	StatusCancelled       BookingStatus = "cancelled"
	StatusCompleted       BookingStatus = "completed"
	StatusDeleted         BookingStatus = "deleted"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPendingApproval, StatusCancelled, StatusCompleted, StatusDeleted:
		return true
	}
	return false
}

// Active reports whether a booking in status s takes part in conflict checks.
func (s BookingStatus) Active() bool {
	return s != StatusCancelled && s != StatusDeleted
}

// ParseBookingStatus converts raw input to a BookingStatus.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBookingStatus, raw)
	}
	return s, nil
}

// PaymentStatus tracks payment of a booking fee.
type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentUnpaid, PaymentRefunded:
		return true
	}
	return false
}

// ParsePaymentStatus converts raw input to a PaymentStatus. The legacy value
// "pending" is read as unpaid.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	if raw == "pending" {
		return PaymentUnpaid, nil
	}
	s := PaymentStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, raw)
	}
	return s, nil
}

// BookingType distinguishes resident bookings from external guests.
type BookingType string

const (
	BookingResident BookingType = "resident"
	BookingExternal BookingType = "external"
)

// Valid reports whether t is a known booking type.
func (t BookingType) Valid() bool {
	return t == BookingResident || t == BookingExternal
}

// Facility is a bookable community amenity.
type Facility struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Type        string          `json:"type,omitempty" yaml:"type"`
	Capacity    int             `json:"capacity,omitempty" yaml:"capacity"`
	HourlyRate  decimal.Decimal `json:"hourlyRate" yaml:"hourly_rate"`
	Available   bool            `json:"isAvailable" yaml:"available"`
	Description string          `json:"description,omitempty" yaml:"description"`
}

// Booking reserves a facility for a window on one calendar day.
type Booking struct {
	ID                 string          `json:"id"`
	FacilityID         string          `json:"facilityId"`
	BookingType        BookingType     `json:"bookingType"`
	ResidentBuildingID string          `json:"residentBuildingId,omitempty"`
	ResidentUnitID     string          `json:"residentUnitId,omitempty"`
	ResidentName       string          `json:"residentName,omitempty"`
	ExternalName       string          `json:"externalName,omitempty"`
	ExternalContact    string          `json:"externalContact,omitempty"`
	BookingDate        string          `json:"bookingDate"`
	StartTime          scheduler.Clock `json:"startTime"`
	EndTime            scheduler.Clock `json:"endTime"`
	StaffName          string          `json:"staffName,omitempty"`
	Fee                decimal.Decimal `json:"fee"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`
	BookingStatus      BookingStatus   `json:"bookingStatus"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Slot returns the scheduling window of b.
func (b Booking) Slot() scheduler.Slot {
	return scheduler.Slot{
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		Date:       b.BookingDate,
		Start:      b.StartTime,
		End:        b.EndTime,
	}
}

// refusal returns the status-specific error for a booking that can no longer
// change, or nil.
func (b Booking) refusal() error {
	switch b.BookingStatus {
	case StatusCancelled:
		return ErrBookingCancelled
	case StatusDeleted:
		return ErrBookingDeleted
	}
	return nil
}
