package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/civisos/internal/iot"
	"github.com/example/civisos/internal/persistence"
	"github.com/example/civisos/internal/validation"
)

// EventInvalidReading is recorded when a device reports out-of-range data.
const EventInvalidReading = "invalid_reading"

// DeviceService validates telemetry and keeps the device event log.
type DeviceService struct {
	store       *sliceStore[iot.State]
	idGenerator func() string
	now         func() time.Time
	eventLimit  int
	logger      *slog.Logger
}

// NewDeviceService constructs a device service with the provided dependencies.
func NewDeviceService(repo SnapshotRepository, idGenerator func() string, now func() time.Time, eventLimit int) *DeviceService {
	return NewDeviceServiceWithLogger(repo, idGenerator, now, eventLimit, nil)
}

// NewDeviceServiceWithLogger constructs a device service with a specified logger.
func NewDeviceServiceWithLogger(repo SnapshotRepository, idGenerator func() string, now func() time.Time, eventLimit int, logger *slog.Logger) *DeviceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if eventLimit <= 0 {
		eventLimit = iot.DefaultEventLimit
	}
	return &DeviceService{
		store:       newSliceStore[iot.State](persistence.SliceIoT, repo, nil, now),
		idGenerator: idGenerator,
		now:         now,
		eventLimit:  eventLimit,
		logger:      defaultLogger(logger),
	}
}

func (s *DeviceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DeviceService", operation, attrs...)
}

// ListDevices returns every registered device.
func (s *DeviceService) ListDevices(ctx context.Context, principal Principal) ([]iot.Device, error) {
	if s == nil {
		return nil, fmt.Errorf("DeviceService is nil")
	}
	if err := authorize(principal, RoleStaff); err != nil {
		return nil, err
	}
	state, err := s.store.read(ctx)
	if err != nil {
		return nil, err
	}
	if state.Devices == nil {
		return []iot.Device{}, nil
	}
	return state.Devices, nil
}

// ListEvents returns the event log newest first, optionally only the
// unprocessed entries.
func (s *DeviceService) ListEvents(ctx context.Context, principal Principal, unprocessedOnly bool) ([]iot.Event, error) {
	if s == nil {
		return nil, fmt.Errorf("DeviceService is nil")
	}
	if err := authorize(principal, RoleStaff); err != nil {
		return nil, err
	}
	state, err := s.store.read(ctx)
	if err != nil {
		return nil, err
	}
	events := state.Events
	if unprocessedOnly {
		events = state.UnprocessedEvents()
	}
	if events == nil {
		events = []iot.Event{}
	}
	return events, nil
}

// RecordReadings validates a telemetry payload and merges it into the
// device. Out-of-range readings put the device into the error status and
// add a high severity event before the validation error is returned.
func (s *DeviceService) RecordReadings(ctx context.Context, principal Principal, deviceID string, data map[string]any) (device iot.Device, err error) {
	if s == nil {
		err = fmt.Errorf("DeviceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RecordReadings",
		"staff", principal.StaffName,
		"device_id", deviceID,
		"reading_count", len(data),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record readings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(device.Status)).InfoContext(ctx, "readings recorded")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	now := s.now()
	var next iot.State
	next, err = s.store.update(ctx, func(state iot.State) (iot.State, error) {
		updated, opErr := state.UpdateDeviceData(deviceID, data, now)
		var errs validation.Errors
		if errors.As(opErr, &errs) {
			updated = updated.AddEvent(iot.Event{
				ID:        s.idGenerator(),
				DeviceID:  deviceID,
				EventType: EventInvalidReading,
				Timestamp: now,
				Data:      rejectedFields(errs),
				Severity:  iot.SeverityHigh,
			}, s.eventLimit)
		}
		return updated, opErr
	})

	device, _ = next.Device(deviceID)
	err = mapDomainError(err)
	return
}

// ProcessEvent marks an event as handled.
func (s *DeviceService) ProcessEvent(ctx context.Context, principal Principal, eventID string) (err error) {
	if s == nil {
		return fmt.Errorf("DeviceService is nil")
	}

	logger := s.loggerWith(ctx, "ProcessEvent",
		"staff", principal.StaffName,
		"event_id", eventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to process event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event processed")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	_, err = s.store.update(ctx, func(state iot.State) (iot.State, error) {
		return state.ProcessEvent(eventID)
	})
	err = mapDomainError(err)
	return
}

// UpsertDevice registers or replaces a device.
func (s *DeviceService) UpsertDevice(ctx context.Context, principal Principal, device iot.Device) (err error) {
	if s == nil {
		return fmt.Errorf("DeviceService is nil")
	}

	logger := s.loggerWith(ctx, "UpsertDevice",
		"staff", principal.StaffName,
		"device_id", device.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert device", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "device upserted")
	}()

	if err = authorize(principal, RoleManager); err != nil {
		return
	}
	if device.ID == "" {
		vErr := &ValidationError{}
		vErr.add("id", "id is required")
		err = vErr
		return
	}

	_, err = s.store.update(ctx, func(state iot.State) (iot.State, error) {
		return state.UpsertDevice(device), nil
	})
	return
}

func rejectedFields(errs validation.Errors) map[string]any {
	out := make(map[string]any, len(errs))
	for _, fe := range errs {
		out[fe.Field] = map[string]any{"value": fmt.Sprint(fe.Value), "message": fe.Message}
	}
	return out
}
