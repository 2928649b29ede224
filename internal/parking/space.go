// Package parking guards parking space assignment and status changes.
package parking

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/civisos/internal/validation"
)

var (
	ErrSpaceOccupied         = errors.New("space already occupied")
	ErrSpaceReserved         = errors.New("space already reserved")
	ErrSpaceUnderMaintenance = errors.New("space under maintenance")
	ErrSpaceNotFound         = errors.New("space not found")
	ErrInvalidStatus         = errors.New("invalid space status")
	ErrInvalidAssignment     = errors.New("invalid assignment")
)

// Status is the occupancy state of a space.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusReserved    Status = "reserved"
	StatusMaintenance Status = "maintenance"
)

// Valid reports whether s is a known space status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusMaintenance:
		return true
	}
	return false
}

// ParseStatus converts raw input to a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// SpaceType is the intended use of a space.
type SpaceType string

const (
	TypeResident SpaceType = "resident"
	TypeVisitor  SpaceType = "visitor"
	TypeReserved SpaceType = "reserved"
	TypeDisabled SpaceType = "disabled"
)

// Space is one parking space and its current occupant.
type Space struct {
	ID               string     `json:"id" yaml:"id"`
	Area             string     `json:"area" yaml:"area"`
	Number           string     `json:"number" yaml:"number"`
	Type             SpaceType  `json:"type" yaml:"type"`
	Status           Status     `json:"status" yaml:"status"`
	ResidentID       string     `json:"residentId,omitempty" yaml:"resident_id"`
	OccupantName     string     `json:"occupantName,omitempty" yaml:"occupant_name"`
	PlateNumber      string     `json:"plateNumber,omitempty" yaml:"plate_number"`
	StartTime        *time.Time `json:"startTime,omitempty" yaml:"-"`
	Reason           string     `json:"reason,omitempty" yaml:"reason"`
	ReservedUntil    *time.Time `json:"reservedUntil,omitempty" yaml:"-"`
	MaintenanceUntil *time.Time `json:"maintenanceUntil,omitempty" yaml:"-"`
}

// Assignment carries the occupant placed into a space.
type Assignment struct {
	ResidentID   string
	OccupantName string
	PlateNumber  string
	StartTime    *time.Time
}

// Assign places an occupant into an available space. Any other status is
// refused with a status-specific error and the space is returned unchanged.
func Assign(space Space, a Assignment) (Space, error) {
	switch space.Status {
	case StatusOccupied:
		return space, ErrSpaceOccupied
	case StatusReserved:
		return space, ErrSpaceReserved
	case StatusMaintenance:
		return space, ErrSpaceUnderMaintenance
	case StatusAvailable:
	default:
		return space, fmt.Errorf("%w: %q", ErrInvalidStatus, space.Status)
	}
	if !validation.IsNotBlank(a.ResidentID) {
		return space, fmt.Errorf("%w: resident id is required", ErrInvalidAssignment)
	}

	space.Status = StatusOccupied
	space.ResidentID = a.ResidentID
	space.OccupantName = a.OccupantName
	space.PlateNumber = a.PlateNumber
	space.StartTime = a.StartTime
	return space, nil
}

// Release frees a space and clears every occupant and hold field. Releasing
// an available space is a no-op.
func Release(space Space) Space {
	return cleared(space)
}

// SetStatus moves a space into reserved, maintenance or available. Occupying
// a space goes through Assign, and an occupied space must be released first.
func SetStatus(space Space, status Status, reason string, until *time.Time) (Space, error) {
	if !status.Valid() {
		return space, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == StatusOccupied {
		return space, fmt.Errorf("%w: use assign to occupy a space", ErrInvalidStatus)
	}
	if space.Status == StatusOccupied {
		return space, ErrSpaceOccupied
	}

	switch status {
	case StatusAvailable:
		return cleared(space), nil
	case StatusReserved:
		space.ReservedUntil = until
		space.MaintenanceUntil = nil
	case StatusMaintenance:
		space.MaintenanceUntil = until
		space.ReservedUntil = nil
	}
	space.Status = status
	space.Reason = reason
	return space, nil
}

func cleared(space Space) Space {
	space.Status = StatusAvailable
	space.ResidentID = ""
	space.OccupantName = ""
	space.PlateNumber = ""
	space.StartTime = nil
	space.Reason = ""
	space.ReservedUntil = nil
	space.MaintenanceUntil = nil
	return space
}
