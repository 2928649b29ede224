package facility

import (
	"fmt"
	"regexp"

	"github.com/example/civisos/internal/scheduler"
	"github.com/example/civisos/internal/validation"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var bookingRules = []validation.Rule{
	{Field: "id", Required: true, Type: validation.StringType{MaxLength: 64}},
	{Field: "facilityId", Required: true, Type: validation.StringType{MaxLength: 64}},
	{Field: "bookingDate", Required: true, Type: validation.DateType{}, Pattern: datePattern, Message: "bookingDate must be a YYYY-MM-DD date"},
	{Field: "bookingType", Required: true, Custom: func(v any) bool { return BookingType(fmt.Sprint(v)).Valid() }, Message: "bookingType must be resident or external"},
	{Field: "residentName", Type: validation.StringType{MaxLength: 100}},
	{Field: "externalName", Type: validation.StringType{MaxLength: 100}},
	{Field: "notes", Type: validation.StringType{MaxLength: 500}},
}

// ValidateBooking checks the fields of a new booking. Occupant names are
// optional; a booking is identified by its facility, date and window.
func ValidateBooking(b Booking) validation.Errors {
	record := validation.Record{
		"id":           b.ID,
		"facilityId":   b.FacilityID,
		"bookingDate":  b.BookingDate,
		"bookingType":  string(b.BookingType),
		"residentName": b.ResidentName,
		"externalName": b.ExternalName,
		"notes":        b.Notes,
	}
	errs := validation.Validate(record, bookingRules).Errors

	if !b.StartTime.Valid() {
		errs.Add(validation.FieldError{Field: "startTime", Message: "startTime must be between 00:00 and 24:00", Value: b.StartTime})
	}
	if !b.EndTime.Valid() {
		errs.Add(validation.FieldError{Field: "endTime", Message: "endTime must be between 00:00 and 24:00", Value: b.EndTime})
	}
	if b.StartTime.Valid() && b.EndTime.Valid() && b.StartTime >= b.EndTime {
		errs.Add(validation.FieldError{Field: "endTime", Message: "endTime must be after startTime", Value: b.EndTime.String()})
	}

	if b.Fee.IsNegative() {
		errs.Add(validation.FieldError{Field: "fee", Message: "fee must not be negative", Value: b.Fee.String()})
	}
	return errs
}

// CheckConflicts returns ErrSlotTaken when candidate overlaps any active
// booking in existing.
func CheckConflicts(candidate Booking, existing []Booking) error {
	slots := make([]scheduler.Slot, 0, len(existing))
	for _, b := range existing {
		if b.BookingStatus.Active() {
			slots = append(slots, b.Slot())
		}
	}
	conflicts := scheduler.DetectConflicts(slots, candidate.Slot())
	if len(conflicts) == 0 {
		return nil
	}
	first := conflicts[0]
	return fmt.Errorf("%w: %s %s %s-%s held by booking %s",
		ErrSlotTaken, first.FacilityID, first.Date, first.Start, first.End, first.WithBookingID)
}
