package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/iot"
)

type deviceService interface {
	ListDevices(ctx context.Context, principal application.Principal) ([]iot.Device, error)
	ListEvents(ctx context.Context, principal application.Principal, unprocessedOnly bool) ([]iot.Event, error)
	RecordReadings(ctx context.Context, principal application.Principal, deviceID string, data map[string]any) (iot.Device, error)
	ProcessEvent(ctx context.Context, principal application.Principal, eventID string) error
}

type DeviceHandler struct {
	service   deviceService
	responder responder
	logger    *slog.Logger
}

func NewDeviceHandler(service deviceService, logger *slog.Logger) *DeviceHandler {
	base := defaultLogger(logger)
	return &DeviceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DeviceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DeviceHandler", operation, attrs...)
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	devices, err := h.service.ListDevices(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List", "staff", principal.StaffName).ErrorContext(r.Context(), "failed to list devices", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deviceListResponse{Devices: devices})
}

// Events lists device events newest first. unprocessed=true hides handled ones.
func (h *DeviceHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	unprocessed, _ := strconv.ParseBool(r.URL.Query().Get("unprocessed"))

	events, err := h.service.ListEvents(r.Context(), principal, unprocessed)
	if err != nil {
		h.log(r.Context(), "Events", "staff", principal.StaffName).ErrorContext(r.Context(), "failed to list events", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{Events: events})
}

// RecordData accepts a JSON object of sensor readings for one device.
func (h *DeviceHandler) RecordData(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var data map[string]any
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		h.log(r.Context(), "RecordData", "staff", principal.StaffName, "device_id", deviceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode readings", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "RecordData", "staff", principal.StaffName, "device_id", deviceID)

	device, err := h.service.RecordReadings(r.Context(), principal, deviceID, data)
	if err != nil {
		logger.ErrorContext(r.Context(), "recording readings failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(device.Status)).InfoContext(r.Context(), "readings recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deviceResponse{Device: device})
}

func (h *DeviceHandler) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ProcessEvent", "staff", principal.StaffName, "event_id", eventID)

	if err := h.service.ProcessEvent(r.Context(), principal, eventID); err != nil {
		logger.ErrorContext(r.Context(), "event processing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event processed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type deviceResponse struct {
	Device iot.Device `json:"device"`
}

type deviceListResponse struct {
	Devices []iot.Device `json:"devices"`
}

type eventListResponse struct {
	Events []iot.Event `json:"events"`
}
