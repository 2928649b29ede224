package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/validation"
)

type importService interface {
	ValidateRecords(ctx context.Context, principal application.Principal, kind string, records []validation.Record) (application.ImportReport, error)
}

type ImportHandler struct {
	service   importService
	responder responder
	logger    *slog.Logger
}

func NewImportHandler(service importService, logger *slog.Logger) *ImportHandler {
	base := defaultLogger(logger)
	return &ImportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ImportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ImportHandler", operation, attrs...)
}

// Validate checks {"records": [...]} against the rules of the kind in the
// path and returns a per-row report. An invalid row is not an HTTP error.
func (h *ImportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	kind := chi.URLParam(r, "kind")
	principal, _ := PrincipalFromContext(r.Context())

	var req importRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		h.log(r.Context(), "Validate", "staff", principal.StaffName, "kind", kind, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode import records", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Validate", "staff", principal.StaffName, "kind", kind, "record_count", len(req.Records))

	records := make([]validation.Record, 0, len(req.Records))
	for _, record := range req.Records {
		records = append(records, validation.Record(record))
	}

	report, err := h.service.ValidateRecords(r.Context(), principal, kind, records)
	if err != nil {
		logger.ErrorContext(r.Context(), "import validation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("invalid", report.Invalid).InfoContext(r.Context(), "import validated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, report)
}

type importRequest struct {
	Records []map[string]any `json:"records"`
}
