package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/deposit"
)

var errInvalidDateFilter = errors.New("from and to must be dates formatted as YYYY-MM-DD or RFC 3339")

type depositService interface {
	ListItems(ctx context.Context, principal application.Principal, criteria deposit.Criteria) (application.DepositListing, error)
	Item(ctx context.Context, principal application.Principal, itemID string) (deposit.Item, error)
	AddItem(ctx context.Context, principal application.Principal, input deposit.Item) (deposit.Item, error)
	EditItem(ctx context.Context, principal application.Principal, itemID string, edit deposit.Edit) (deposit.Item, error)
	AddMoney(ctx context.Context, params application.MoneyParams) (deposit.Item, error)
	SubtractMoney(ctx context.Context, params application.MoneyParams) (deposit.Item, error)
	RetrieveItem(ctx context.Context, principal application.Principal, itemID string) (deposit.Item, error)
	RevertItem(ctx context.Context, principal application.Principal, itemID string) (deposit.Item, error)
}

type DepositHandler struct {
	service   depositService
	responder responder
	logger    *slog.Logger
}

func NewDepositHandler(service depositService, logger *slog.Logger) *DepositHandler {
	base := defaultLogger(logger)
	return &DepositHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DepositHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DepositHandler", operation, attrs...)
}

// List filters deposits by keyword, status and deposit date range.
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "staff", principal.StaffName)

	query := r.URL.Query()
	criteria := deposit.Criteria{
		Keyword: strings.TrimSpace(query.Get("keyword")),
		Status:  deposit.Status(strings.TrimSpace(query.Get("status"))),
	}
	var err error
	if criteria.From, err = parseDateParam(query.Get("from")); err != nil {
		logger.ErrorContext(r.Context(), "invalid from filter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateFilter)
		return
	}
	if criteria.To, err = parseDateParam(query.Get("to")); err != nil {
		logger.ErrorContext(r.Context(), "invalid to filter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateFilter)
		return
	}

	listing, err := h.service.ListItems(r.Context(), principal, criteria)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list deposits", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("count", len(listing.Items)).InfoContext(r.Context(), "deposits listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listing)
}

func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	item, err := h.service.Item(r.Context(), principal, itemID)
	if err != nil {
		h.log(r.Context(), "Get", "staff", principal.StaffName, "item_id", itemID).ErrorContext(r.Context(), "failed to load deposit", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, depositResponse{Item: item})
}

func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "staff", principal.StaffName, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode deposit request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "staff", principal.StaffName)

	item, err := h.service.AddItem(r.Context(), principal, req.toItem())
	if err != nil {
		logger.ErrorContext(r.Context(), "deposit registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("item_id", item.ID).InfoContext(r.Context(), "deposit registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, depositResponse{Item: item})
}

func (h *DepositHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req depositEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Edit", "staff", principal.StaffName, "item_id", itemID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode deposit edit", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Edit", "staff", principal.StaffName, "item_id", itemID)

	item, err := h.service.EditItem(r.Context(), principal, itemID, req.toEdit())
	if err != nil {
		logger.ErrorContext(r.Context(), "deposit edit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "deposit edited")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, depositResponse{Item: item})
}

// Action handles add, subtract, retrieve and revert.
func (h *DepositHandler) Action(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Action", "staff", principal.StaffName, "item_id", itemID, "action", action)

	var (
		item deposit.Item
		err  error
	)
	switch action {
	case "add", "subtract":
		var req moneyRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			logger.ErrorContext(r.Context(), "failed to decode money request", "error", decodeErr, "error_kind", "bad_request")
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		params := application.MoneyParams{Principal: principal, ItemID: itemID, Amount: req.Amount.String()}
		if action == "add" {
			item, err = h.service.AddMoney(r.Context(), params)
		} else {
			item, err = h.service.SubtractMoney(r.Context(), params)
		}
	case "retrieve":
		item, err = h.service.RetrieveItem(r.Context(), principal, itemID)
	case "revert":
		item, err = h.service.RevertItem(r.Context(), principal, itemID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "deposit action failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("balance", item.Balance.String(), "status", string(item.Status)).InfoContext(r.Context(), "deposit action applied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, depositResponse{Item: item})
}

func parseDateParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errInvalidDateFilter
}

type personDTO struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	BuildingID string `json:"buildingId"`
	UnitID     string `json:"unitId"`
}

func (p personDTO) toPerson() deposit.Person {
	return deposit.Person{
		Type:       deposit.PersonType(p.Type),
		Name:       p.Name,
		BuildingID: p.BuildingID,
		UnitID:     p.UnitID,
	}
}

type depositRequest struct {
	Types          []string         `json:"types"`
	ItemName       string           `json:"itemName"`
	Sender         personDTO        `json:"sender"`
	Receiver       personDTO        `json:"receiver"`
	Notes          string           `json:"notes"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
}

func (req depositRequest) toItem() deposit.Item {
	item := deposit.Item{
		ItemName: req.ItemName,
		Sender:   req.Sender.toPerson(),
		Receiver: req.Receiver.toPerson(),
		Notes:    req.Notes,
	}
	for _, t := range req.Types {
		item.Types = append(item.Types, deposit.Type(t))
	}
	if req.InitialBalance != nil {
		item.Balance = *req.InitialBalance
	}
	return item
}

type depositEditRequest struct {
	ItemName *string    `json:"itemName"`
	Sender   *personDTO `json:"sender"`
	Receiver *personDTO `json:"receiver"`
	Notes    *string    `json:"notes"`
	Types    []string   `json:"types"`
}

func (req depositEditRequest) toEdit() deposit.Edit {
	edit := deposit.Edit{ItemName: req.ItemName, Notes: req.Notes}
	if req.Sender != nil {
		p := req.Sender.toPerson()
		edit.Sender = &p
	}
	if req.Receiver != nil {
		p := req.Receiver.toPerson()
		edit.Receiver = &p
	}
	for _, t := range req.Types {
		edit.Types = append(edit.Types, deposit.Type(t))
	}
	return edit
}

type moneyRequest struct {
	Amount json.Number `json:"amount"`
}

type depositResponse struct {
	Item deposit.Item `json:"item"`
}
