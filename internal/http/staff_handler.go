package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/civisos/internal/application"
)

type staffService interface {
	CreateStaff(ctx context.Context, params application.CreateStaffParams) (application.Staff, error)
	SetDisabled(ctx context.Context, principal application.Principal, name string, disabled bool) (application.Staff, error)
	ListStaff(ctx context.Context, principal application.Principal) ([]application.Staff, error)
}

type StaffHandler struct {
	service   staffService
	responder responder
	logger    *slog.Logger
}

func NewStaffHandler(service staffService, logger *slog.Logger) *StaffHandler {
	base := defaultLogger(logger)
	return &StaffHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StaffHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StaffHandler", operation, attrs...)
}

// Me echoes the authenticated principal.
func (h *StaffHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingCredentials)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, principalDTO{Name: principal.StaffName, Role: string(principal.Role)})
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	staff, err := h.service.ListStaff(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List", "staff", principal.StaffName).ErrorContext(r.Context(), "failed to list staff", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, staffListResponse{Staff: staff})
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "staff", principal.StaffName, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staff request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "staff", principal.StaffName, "new_staff", req.Name)

	staff, err := h.service.CreateStaff(r.Context(), application.CreateStaffParams{
		Principal: principal,
		Name:      req.Name,
		Role:      application.Role(req.Role),
		PIN:       req.PIN,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "staff creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "staff created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, staffResponse{Staff: staff})
}

func (h *StaffHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	name := chi.URLParam(r, "name")
	principal, _ := PrincipalFromContext(r.Context())

	var req disableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetDisabled", "staff", principal.StaffName, "target", name, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode disable request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetDisabled", "staff", principal.StaffName, "target", name, "disabled", req.Disabled)

	staff, err := h.service.SetDisabled(r.Context(), principal, name, req.Disabled)
	if err != nil {
		logger.ErrorContext(r.Context(), "staff update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "staff updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, staffResponse{Staff: staff})
}

type principalDTO struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type staffRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
	PIN  string `json:"pin"`
}

type disableRequest struct {
	Disabled bool `json:"disabled"`
}

type staffResponse struct {
	Staff application.Staff `json:"staff"`
}

type staffListResponse struct {
	Staff []application.Staff `json:"staff"`
}
