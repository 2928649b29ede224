package iot

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrEventNotFound  = errors.New("event not found")
	ErrInvalidPayload = errors.New("invalid device payload")
)

// DefaultEventLimit caps the retained event log.
const DefaultEventLimit = 1000

// DeviceType is the hardware category of a device.
type DeviceType string

const (
	DeviceSensor        DeviceType = "sensor"
	DeviceActuator      DeviceType = "actuator"
	DeviceCamera        DeviceType = "camera"
	DeviceAccessControl DeviceType = "access_control"
	DeviceMeter         DeviceType = "meter"
)

// DeviceStatus is the connectivity state of a device.
type DeviceStatus string

const (
	DeviceOnline      DeviceStatus = "online"
	DeviceOffline     DeviceStatus = "offline"
	DeviceError       DeviceStatus = "error"
	DeviceMaintenance DeviceStatus = "maintenance"
)

// Severity grades an event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Device is a registered IoT device with its latest readings.
type Device struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Type          DeviceType     `json:"type" yaml:"type"`
	Location      string         `json:"location" yaml:"location"`
	UnitID        string         `json:"unitId,omitempty" yaml:"unit_id"`
	Status        DeviceStatus   `json:"status" yaml:"status"`
	LastSeen      time.Time      `json:"lastSeen" yaml:"-"`
	Data          map[string]any `json:"data" yaml:"data"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration"`
}

// Event is an entry in the device event log.
type Event struct {
	ID        string         `json:"id"`
	DeviceID  string         `json:"deviceId"`
	EventType string         `json:"eventType"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Processed bool           `json:"processed"`
	Severity  Severity       `json:"severity"`
}

// State holds devices and the newest-first event log.
type State struct {
	Devices []Device `json:"devices"`
	Events  []Event  `json:"events"`
}

func (s State) deviceIndex(id string) int {
	return slices.IndexFunc(s.Devices, func(d Device) bool { return d.ID == id })
}

// Device returns the device with the given id.
func (s State) Device(id string) (Device, bool) {
	i := s.deviceIndex(id)
	if i < 0 {
		return Device{}, false
	}
	return s.Devices[i], true
}

// UpsertDevice inserts or replaces a device by id.
func (s State) UpsertDevice(d Device) State {
	if d.Status == "" {
		d.Status = DeviceOffline
	}
	next := s
	next.Devices = slices.Clone(s.Devices)
	if i := next.deviceIndex(d.ID); i >= 0 {
		next.Devices[i] = d
	} else {
		next.Devices = append(next.Devices, d)
	}
	return next
}

// UpdateDeviceData validates readings and merges them into the device.
//
// Readings that fail validation mark the device as error and leave its data
// and LastSeen untouched; the validation errors are returned. A nil payload
// is refused without any change.
func (s State) UpdateDeviceData(id string, data map[string]any, now time.Time) (State, error) {
	i := s.deviceIndex(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if data == nil {
		return s, fmt.Errorf("%w: %s", ErrInvalidPayload, id)
	}

	next := s
	next.Devices = slices.Clone(s.Devices)
	device := next.Devices[i]

	if result := ValidateReadings(string(device.Type), data); !result.Valid {
		device.Status = DeviceError
		next.Devices[i] = device
		return next, result.Errors
	}

	merged := maps.Clone(device.Data)
	if merged == nil {
		merged = make(map[string]any, len(data))
	}
	maps.Copy(merged, data)
	device.Data = merged
	device.LastSeen = now
	device.Status = DeviceOnline
	next.Devices[i] = device
	return next, nil
}

// SetStatus changes a device's status, stamping LastSeen when given.
func (s State) SetStatus(id string, status DeviceStatus, lastSeen *time.Time) (State, error) {
	i := s.deviceIndex(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	next := s
	next.Devices = slices.Clone(s.Devices)
	next.Devices[i].Status = status
	if lastSeen != nil {
		next.Devices[i].LastSeen = *lastSeen
	}
	return next, nil
}

// AddEvent prepends e and trims the log to limit entries. A non-positive
// limit means DefaultEventLimit.
func (s State) AddEvent(e Event, limit int) State {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	next := s
	events := make([]Event, 0, min(len(s.Events)+1, limit))
	events = append(events, e)
	events = append(events, s.Events...)
	if len(events) > limit {
		events = events[:limit]
	}
	next.Events = events
	return next
}

// ProcessEvent marks an event handled.
func (s State) ProcessEvent(id string) (State, error) {
	i := slices.IndexFunc(s.Events, func(e Event) bool { return e.ID == id })
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	next := s
	next.Events = slices.Clone(s.Events)
	next.Events[i].Processed = true
	return next, nil
}

// UnprocessedEvents returns the events not yet handled, newest first.
func (s State) UnprocessedEvents() []Event {
	var out []Event
	for _, e := range s.Events {
		if !e.Processed {
			out = append(out, e)
		}
	}
	return out
}
