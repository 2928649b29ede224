package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/fee"
)

type feeService interface {
	State(ctx context.Context, principal application.Principal) (fee.State, error)
	CalculateUnit(ctx context.Context, principal application.Principal, unitID string) (fee.Unit, error)
	SetPaymentStatus(ctx context.Context, principal application.Principal, unitID, status string) (fee.Unit, error)
	ReplaceConfigs(ctx context.Context, principal application.Principal, configs application.FeeConfigs) (fee.Stats, error)
	Recalculate(ctx context.Context, principal application.Principal) (fee.Stats, error)
}

type FeeHandler struct {
	service   feeService
	responder responder
	logger    *slog.Logger
}

func NewFeeHandler(service feeService, logger *slog.Logger) *FeeHandler {
	base := defaultLogger(logger)
	return &FeeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FeeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FeeHandler", operation, attrs...)
}

func (h *FeeHandler) Units(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	state, err := h.service.State(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Units", "staff", principal.StaffName).ErrorContext(r.Context(), "failed to list fee units", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, feeUnitsResponse{
		Units:               state.Units,
		Details:             state.Details,
		Stats:               state.Stats,
		DefaultArea:         state.DefaultArea,
		DefaultPricePerPing: state.DefaultPricePerPing,
		Error:               state.Error,
	})
}

func (h *FeeHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	unitID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Calculate", "staff", principal.StaffName, "unit_id", unitID)

	unit, err := h.service.CalculateUnit(r.Context(), principal, unitID)
	if err != nil {
		logger.ErrorContext(r.Context(), "fee calculation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("total_fee", unit.TotalFee.String()).InfoContext(r.Context(), "fee calculated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, feeUnitResponse{Unit: unit})
}

func (h *FeeHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	unitID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetPayment", "staff", principal.StaffName, "unit_id", unitID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode payment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetPayment", "staff", principal.StaffName, "unit_id", unitID, "payment_status", req.PaymentStatus)

	unit, err := h.service.SetPaymentStatus(r.Context(), principal, unitID, req.PaymentStatus)
	if err != nil {
		logger.ErrorContext(r.Context(), "fee payment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "fee payment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, feeUnitResponse{Unit: unit})
}

// ReplaceConfigs swaps the building fee configuration and returns the new stats.
func (h *FeeHandler) ReplaceConfigs(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req application.FeeConfigs
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ReplaceConfigs", "staff", principal.StaffName, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode fee configs", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ReplaceConfigs", "staff", principal.StaffName)

	stats, err := h.service.ReplaceConfigs(r.Context(), principal, req)
	if err != nil {
		logger.ErrorContext(r.Context(), "fee config replacement failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "fee configs replaced")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stats)
}

func (h *FeeHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.Recalculate(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Recalculate", "staff", principal.StaffName).ErrorContext(r.Context(), "fee recalculation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stats)
}

type feeUnitResponse struct {
	Unit fee.Unit `json:"unit"`
}

type feeUnitsResponse struct {
	Units               []fee.Unit      `json:"units"`
	Details             []fee.Detail    `json:"details"`
	Stats               fee.Stats       `json:"stats"`
	DefaultArea         decimal.Decimal `json:"defaultArea"`
	DefaultPricePerPing decimal.Decimal `json:"defaultPricePerPing"`
	Error               string          `json:"error,omitempty"`
}
