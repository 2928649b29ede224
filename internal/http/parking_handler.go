package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/parking"
)

type parkingService interface {
	State(ctx context.Context, principal application.Principal) (parking.State, error)
	Stats(ctx context.Context, principal application.Principal) (parking.Stats, error)
	AssignSpace(ctx context.Context, params application.AssignSpaceParams) (parking.Space, error)
	ReleaseSpace(ctx context.Context, principal application.Principal, spaceID string) (parking.Space, error)
	SetSpaceStatus(ctx context.Context, params application.SetSpaceStatusParams) (parking.Space, error)
}

type ParkingHandler struct {
	service   parkingService
	responder responder
	logger    *slog.Logger
}

func NewParkingHandler(service parkingService, logger *slog.Logger) *ParkingHandler {
	base := defaultLogger(logger)
	return &ParkingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ParkingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ParkingHandler", operation, attrs...)
}

func (h *ParkingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "staff", principal.StaffName)

	state, err := h.service.State(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list spaces", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	spaces := state.Spaces
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		spaces = filterSpaces(spaces, func(s parking.Space) bool { return string(s.Status) == status })
	}
	if area := strings.TrimSpace(r.URL.Query().Get("area")); area != "" {
		spaces = filterSpaces(spaces, func(s parking.Space) bool { return s.Area == area })
	}

	logger.With("count", len(spaces)).InfoContext(r.Context(), "spaces listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceListResponse{Spaces: spaces, Error: state.Error})
}

func (h *ParkingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.Stats(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Stats", "staff", principal.StaffName).ErrorContext(r.Context(), "failed to compute parking stats", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stats)
}

func (h *ParkingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Assign", "staff", principal.StaffName, "space_id", spaceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode assignment", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Assign", "staff", principal.StaffName, "space_id", spaceID)

	space, err := h.service.AssignSpace(r.Context(), application.AssignSpaceParams{
		Principal: principal,
		SpaceID:   spaceID,
		Assignment: parking.Assignment{
			ResidentID:   req.ResidentID,
			OccupantName: req.OccupantName,
			PlateNumber:  req.PlateNumber,
			StartTime:    req.StartTime,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "space assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "space assigned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: space})
}

func (h *ParkingHandler) Release(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Release", "staff", principal.StaffName, "space_id", spaceID)

	space, err := h.service.ReleaseSpace(r.Context(), principal, spaceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "space release failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "space released")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: space})
}

func (h *ParkingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req spaceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetStatus", "staff", principal.StaffName, "space_id", spaceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetStatus", "staff", principal.StaffName, "space_id", spaceID, "status", req.Status)

	space, err := h.service.SetSpaceStatus(r.Context(), application.SetSpaceStatusParams{
		Principal: principal,
		SpaceID:   spaceID,
		Status:    req.Status,
		Reason:    req.Reason,
		Until:     req.Until,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "space status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "space status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: space})
}

func filterSpaces(spaces []parking.Space, keep func(parking.Space) bool) []parking.Space {
	filtered := make([]parking.Space, 0, len(spaces))
	for _, space := range spaces {
		if keep(space) {
			filtered = append(filtered, space)
		}
	}
	return filtered
}

type assignRequest struct {
	ResidentID   string     `json:"residentId"`
	OccupantName string     `json:"occupantName"`
	PlateNumber  string     `json:"plateNumber"`
	StartTime    *time.Time `json:"startTime"`
}

type spaceStatusRequest struct {
	Status string     `json:"status"`
	Reason string     `json:"reason"`
	Until  *time.Time `json:"until"`
}

type spaceResponse struct {
	Space parking.Space `json:"space"`
}

type spaceListResponse struct {
	Spaces []parking.Space `json:"spaces"`
	Error  string          `json:"error,omitempty"`
}
