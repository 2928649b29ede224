package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/facility"
	"github.com/example/civisos/internal/scheduler"
)

type facilityService interface {
	State(ctx context.Context, principal application.Principal) (facility.State, error)
	Stats(ctx context.Context, principal application.Principal) (facility.Stats, error)
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (facility.Booking, error)
	SetPaymentStatus(ctx context.Context, principal application.Principal, bookingID, status string) (facility.Booking, error)
	Transition(ctx context.Context, principal application.Principal, bookingID string, transition application.BookingTransition) (facility.Booking, error)
}

type FacilityHandler struct {
	service   facilityService
	responder responder
	logger    *slog.Logger
}

func NewFacilityHandler(service facilityService, logger *slog.Logger) *FacilityHandler {
	base := defaultLogger(logger)
	return &FacilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FacilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FacilityHandler", operation, attrs...)
}

// List returns facilities and bookings. The optional facilityId and date
// query parameters narrow the bookings.
func (h *FacilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "staff", principal.StaffName)

	state, err := h.service.State(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	facilityID := strings.TrimSpace(r.URL.Query().Get("facilityId"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	bookings := make([]facility.Booking, 0, len(state.Bookings))
	for _, b := range state.Bookings {
		if facilityID != "" && b.FacilityID != facilityID {
			continue
		}
		if date != "" && b.BookingDate != date {
			continue
		}
		bookings = append(bookings, b)
	}

	logger.With("count", len(bookings)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingListResponse{
		Facilities: state.Facilities,
		Bookings:   bookings,
		Error:      state.Error,
	})
}

func (h *FacilityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.Stats(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Stats", "staff", principal.StaffName).ErrorContext(r.Context(), "failed to compute facility stats", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stats)
}

func (h *FacilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "staff", principal.StaffName, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "staff", principal.StaffName, "facility_id", req.FacilityID)

	booking, vErr := req.toBooking()
	if vErr != nil {
		logger.ErrorContext(r.Context(), "booking request has invalid times", "error", vErr, "error_kind", application.ErrorKind(vErr))
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	created, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Booking:   booking,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", created.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: created})
}

func (h *FacilityHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetPayment", "staff", principal.StaffName, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode payment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetPayment", "staff", principal.StaffName, "booking_id", bookingID, "payment_status", req.PaymentStatus)

	booking, err := h.service.SetPaymentStatus(r.Context(), principal, bookingID, req.PaymentStatus)
	if err != nil {
		logger.ErrorContext(r.Context(), "payment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "payment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: booking})
}

// Transition handles approve, reject, cancel and complete. The step comes
// from the path; Delete reuses it with the delete step.
func (h *FacilityHandler) Transition(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, application.BookingTransition(chi.URLParam(r, "action")))
}

func (h *FacilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, application.TransitionDelete)
}

func (h *FacilityHandler) transition(w http.ResponseWriter, r *http.Request, step application.BookingTransition) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Transition", "staff", principal.StaffName, "booking_id", bookingID, "transition", string(step))

	booking, err := h.service.Transition(r.Context(), principal, bookingID, step)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: booking})
}

type bookingRequest struct {
	ID                 string           `json:"id"`
	FacilityID         string           `json:"facilityId"`
	BookingType        string           `json:"bookingType"`
	ResidentBuildingID string           `json:"residentBuildingId"`
	ResidentUnitID     string           `json:"residentUnitId"`
	ResidentName       string           `json:"residentName"`
	ExternalName       string           `json:"externalName"`
	ExternalContact    string           `json:"externalContact"`
	BookingDate        string           `json:"bookingDate"`
	StartTime          string           `json:"startTime"`
	EndTime            string           `json:"endTime"`
	Fee                *decimal.Decimal `json:"fee"`
	PaymentStatus      string           `json:"paymentStatus"`
	BookingStatus      string           `json:"bookingStatus"`
	Notes              string           `json:"notes"`
}

// toBooking parses the clock fields. Everything else is validated by the
// service so the caller sees one consistent set of field errors.
func (req bookingRequest) toBooking() (facility.Booking, error) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}

	start, err := scheduler.ParseClock(req.StartTime)
	if err != nil {
		vErr.FieldErrors["startTime"] = "startTime must be HH:MM"
	}
	end, err := scheduler.ParseClock(req.EndTime)
	if err != nil {
		vErr.FieldErrors["endTime"] = "endTime must be HH:MM"
	}
	if vErr.HasErrors() {
		return facility.Booking{}, vErr
	}

	booking := facility.Booking{
		ID:                 req.ID,
		FacilityID:         req.FacilityID,
		BookingType:        facility.BookingType(req.BookingType),
		ResidentBuildingID: req.ResidentBuildingID,
		ResidentUnitID:     req.ResidentUnitID,
		ResidentName:       req.ResidentName,
		ExternalName:       req.ExternalName,
		ExternalContact:    req.ExternalContact,
		BookingDate:        req.BookingDate,
		StartTime:          start,
		EndTime:            end,
		PaymentStatus:      facility.PaymentStatus(req.PaymentStatus),
		BookingStatus:      facility.BookingStatus(req.BookingStatus),
		Notes:              req.Notes,
	}
	if req.Fee != nil {
		booking.Fee = *req.Fee
	}
	return booking, nil
}

type paymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

type bookingResponse struct {
	Booking facility.Booking `json:"booking"`
}

type bookingListResponse struct {
	Facilities []facility.Facility `json:"facilities"`
	Bookings   []facility.Booking  `json:"bookings"`
	Error      string              `json:"error,omitempty"`
}
