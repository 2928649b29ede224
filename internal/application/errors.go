package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/civisos/internal/deposit"
	"github.com/example/civisos/internal/facility"
	"github.com/example/civisos/internal/fee"
	"github.com/example/civisos/internal/iot"
	"github.com/example/civisos/internal/money"
	"github.com/example/civisos/internal/parking"
	"github.com/example/civisos/internal/persistence"
	"github.com/example/civisos/internal/validation"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCredentials is returned when a staff name and PIN do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a disabled staff account tries to act.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrAlreadyExists is returned when creating a record whose key is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when a guard refuses an operation because of the
	// current state, such as an occupied space or an insufficient balance.
	ErrConflict = errors.New("application: conflict")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. A second message for the same
// field is appended.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if existing, ok := v.FieldErrors[field]; ok && existing != message {
		message = existing + "; " + message
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// newValidationError converts validator output into a ValidationError.
func newValidationError(errs validation.Errors) *ValidationError {
	vErr := &ValidationError{}
	for _, fe := range errs {
		vErr.add(fe.Field, fe.Message)
	}
	return vErr
}

// invalidInput maps domain sentinels that describe bad caller input to the
// field they concern.
var invalidInput = []struct {
	target error
	field  string
}{
	{parking.ErrInvalidStatus, "status"},
	{parking.ErrInvalidAssignment, "residentId"},
	{facility.ErrInvalidPaymentStatus, "paymentStatus"},
	{facility.ErrInvalidBookingStatus, "bookingStatus"},
	{deposit.ErrInvalidAmount, "amount"},
	{deposit.ErrInvalidType, "types"},
	{money.ErrInvalidAmount, "amount"},
	{iot.ErrInvalidPayload, "data"},
	{fee.ErrInvalidPaymentStatus, "paymentStatus"},
}

var notFound = []error{
	persistence.ErrNotFound,
	parking.ErrSpaceNotFound,
	facility.ErrBookingNotFound,
	deposit.ErrItemNotFound,
	iot.ErrDeviceNotFound,
	iot.ErrEventNotFound,
	fee.ErrUnitNotFound,
}

var conflicts = []error{
	parking.ErrSpaceOccupied,
	parking.ErrSpaceReserved,
	parking.ErrSpaceUnderMaintenance,
	facility.ErrSlotTaken,
	facility.ErrBookingCancelled,
	facility.ErrBookingDeleted,
	facility.ErrDuplicateBooking,
	facility.ErrFacilityUnavailable,
	facility.ErrInvalidTransition,
	deposit.ErrInsufficientBalance,
	deposit.ErrItemNotActive,
}

// mapDomainError translates guard and repository errors into the
// application's sentinel set while keeping the original in the chain.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	if errs := validation.Extract(err); len(errs) > 0 {
		return newValidationError(errs)
	}

	for _, entry := range invalidInput {
		if errors.Is(err, entry.target) {
			vErr := &ValidationError{}
			vErr.add(entry.field, err.Error())
			return vErr
		}
	}

	for _, target := range notFound {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}

	for _, target := range conflicts {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}

	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}

	return err
}
