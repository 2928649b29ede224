package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/deposit"
	"github.com/example/civisos/internal/money"
	"github.com/example/civisos/internal/persistence"
)

// DepositService runs the deposit guards against the stored deposit slice.
type DepositService struct {
	store       *sliceStore[deposit.State]
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDepositService constructs a deposit service with the provided
// dependencies. A nil idGenerator falls back to random UUIDs.
func NewDepositService(repo SnapshotRepository, idGenerator func() string, now func() time.Time) *DepositService {
	return NewDepositServiceWithLogger(repo, idGenerator, now, nil)
}

// NewDepositServiceWithLogger constructs a deposit service with a specified logger.
func NewDepositServiceWithLogger(repo SnapshotRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DepositService {
	if now == nil {
		now = time.Now
	}
	return &DepositService{
		store:       newSliceStore[deposit.State](persistence.SliceDeposit, repo, nil, now),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *DepositService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DepositService", operation, attrs...)
}

func (s *DepositService) op(principal Principal) deposit.Op {
	return deposit.Op{StaffName: principal.StaffName, At: s.now(), NewID: s.idGenerator}
}

// DepositListing is a filtered view of the deposit slice.
type DepositListing struct {
	Items        []deposit.Item  `json:"items"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
	Error        string          `json:"error,omitempty"`
}

// MoneyParams wraps the data required to move money on a deposit.
type MoneyParams struct {
	Principal Principal
	ItemID    string
	Amount    string
}

// ListItems returns the items matching criteria together with the balance of
// all active items and the last refusal message.
func (s *DepositService) ListItems(ctx context.Context, principal Principal, criteria deposit.Criteria) (DepositListing, error) {
	if s == nil {
		return DepositListing{}, fmt.Errorf("DepositService is nil")
	}
	if err := authorize(principal, RoleStaff); err != nil {
		return DepositListing{}, err
	}

	state, err := s.store.read(ctx)
	if err != nil {
		return DepositListing{}, err
	}

	items := state.Search(criteria)
	if items == nil {
		items = []deposit.Item{}
	}
	return DepositListing{Items: items, TotalBalance: state.TotalBalance(), Error: state.Error}, nil
}

// Item returns one deposit by id.
func (s *DepositService) Item(ctx context.Context, principal Principal, itemID string) (deposit.Item, error) {
	if s == nil {
		return deposit.Item{}, fmt.Errorf("DepositService is nil")
	}
	if err := authorize(principal, RoleStaff); err != nil {
		return deposit.Item{}, err
	}

	state, err := s.store.read(ctx)
	if err != nil {
		return deposit.Item{}, err
	}
	item, ok := state.Item(itemID)
	if !ok {
		return deposit.Item{}, fmt.Errorf("%w: %w: %s", ErrNotFound, deposit.ErrItemNotFound, itemID)
	}
	return item, nil
}

// AddItem registers a new deposit.
func (s *DepositService) AddItem(ctx context.Context, principal Principal, input deposit.Item) (item deposit.Item, err error) {
	if s == nil {
		err = fmt.Errorf("DepositService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddItem",
		"staff", principal.StaffName,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register deposit", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"item_id", item.ID,
			"balance", item.Balance.String(),
		).InfoContext(ctx, "deposit registered")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	op := s.op(principal)
	_, err = s.store.update(ctx, func(state deposit.State) (deposit.State, error) {
		var next deposit.State
		next, item, err = state.AddItem(input, op)
		return next, err
	})
	err = mapDomainError(err)
	return
}

// EditItem changes descriptive fields of a deposit.
func (s *DepositService) EditItem(ctx context.Context, principal Principal, itemID string, edit deposit.Edit) (item deposit.Item, err error) {
	if s == nil {
		err = fmt.Errorf("DepositService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EditItem",
		"staff", principal.StaffName,
		"item_id", itemID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to edit deposit", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "deposit edited")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	op := s.op(principal)
	item, err = s.apply(ctx, itemID, func(state deposit.State) (deposit.State, error) {
		return state.Edit(itemID, edit, op)
	})
	return
}

// AddMoney credits a deposit.
func (s *DepositService) AddMoney(ctx context.Context, params MoneyParams) (deposit.Item, error) {
	return s.moveMoney(ctx, "AddMoney", params, deposit.State.AddMoney)
}

// SubtractMoney debits a deposit. A withdrawal larger than the balance is
// refused with a conflict and leaves the balance unchanged.
func (s *DepositService) SubtractMoney(ctx context.Context, params MoneyParams) (deposit.Item, error) {
	return s.moveMoney(ctx, "SubtractMoney", params, deposit.State.SubtractMoney)
}

func (s *DepositService) moveMoney(
	ctx context.Context,
	operation string,
	params MoneyParams,
	move func(deposit.State, string, decimal.Decimal, deposit.Op) (deposit.State, error),
) (item deposit.Item, err error) {
	if s == nil {
		err = fmt.Errorf("DepositService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"staff", params.Principal.StaffName,
		"item_id", params.ItemID,
		"amount", params.Amount,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to move deposit money", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("balance", item.Balance.String()).InfoContext(ctx, "deposit money moved")
	}()

	if err = authorize(params.Principal, RoleStaff); err != nil {
		return
	}

	var amount decimal.Decimal
	amount, err = money.Parse(params.Amount)
	if err != nil {
		err = mapDomainError(err)
		return
	}

	op := s.op(params.Principal)
	item, err = s.apply(ctx, params.ItemID, func(state deposit.State) (deposit.State, error) {
		return move(state, params.ItemID, amount, op)
	})
	return
}

// RetrieveItem marks a deposit as collected.
func (s *DepositService) RetrieveItem(ctx context.Context, principal Principal, itemID string) (deposit.Item, error) {
	return s.close(ctx, "RetrieveItem", principal, itemID, deposit.State.Retrieve)
}

// RevertItem cancels a deposit and settles any remaining balance.
func (s *DepositService) RevertItem(ctx context.Context, principal Principal, itemID string) (deposit.Item, error) {
	return s.close(ctx, "RevertItem", principal, itemID, deposit.State.Revert)
}

func (s *DepositService) close(
	ctx context.Context,
	operation string,
	principal Principal,
	itemID string,
	step func(deposit.State, string, deposit.Op) (deposit.State, error),
) (item deposit.Item, err error) {
	if s == nil {
		err = fmt.Errorf("DepositService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"staff", principal.StaffName,
		"item_id", itemID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to close deposit", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(item.Status)).InfoContext(ctx, "deposit closed")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	op := s.op(principal)
	item, err = s.apply(ctx, itemID, func(state deposit.State) (deposit.State, error) {
		return step(state, itemID, op)
	})
	return
}

func (s *DepositService) apply(ctx context.Context, itemID string, fn func(deposit.State) (deposit.State, error)) (deposit.Item, error) {
	next, err := s.store.update(ctx, fn)
	if err != nil {
		return deposit.Item{}, mapDomainError(err)
	}
	item, _ := next.Item(itemID)
	return item, nil
}
