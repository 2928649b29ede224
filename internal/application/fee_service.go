package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/fee"
	"github.com/example/civisos/internal/persistence"
)

// FeeService calculates management fees and tracks their collection.
type FeeService struct {
	store  *sliceStore[fee.State]
	now    func() time.Time
	logger *slog.Logger
}

// NewFeeService constructs a fee service with the provided dependencies.
func NewFeeService(repo SnapshotRepository, now func() time.Time) *FeeService {
	return NewFeeServiceWithLogger(repo, now, nil)
}

// NewFeeServiceWithLogger constructs a fee service with a specified logger.
func NewFeeServiceWithLogger(repo SnapshotRepository, now func() time.Time, logger *slog.Logger) *FeeService {
	if now == nil {
		now = time.Now
	}
	return &FeeService{
		store:  newSliceStore[fee.State](persistence.SliceFee, repo, fee.NewState, now),
		now:    now,
		logger: defaultLogger(logger),
	}
}

func (s *FeeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FeeService", operation, attrs...)
}

// FeeConfigs replaces the building fee configuration as a whole.
type FeeConfigs struct {
	BaseConfigs    []fee.BaseConfig    `json:"baseConfigs" yaml:"base_configs"`
	SpecialConfigs []fee.SpecialConfig `json:"specialConfigs" yaml:"special_configs"`
	UnitConfigs    []fee.UnitConfig    `json:"unitConfigs" yaml:"unit_configs"`
}

// State returns the fee slice including the last refusal message.
func (s *FeeService) State(ctx context.Context, principal Principal) (fee.State, error) {
	if s == nil {
		return fee.State{}, fmt.Errorf("FeeService is nil")
	}
	if err := authorize(principal, RoleStaff); err != nil {
		return fee.State{}, err
	}
	return s.store.read(ctx)
}

// CalculateUnit fills in area, price and total for one billing unit.
func (s *FeeService) CalculateUnit(ctx context.Context, principal Principal, unitID string) (unit fee.Unit, err error) {
	if s == nil {
		err = fmt.Errorf("FeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CalculateUnit",
		"staff", principal.StaffName,
		"unit_id", unitID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to calculate fee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("total_fee", unit.TotalFee.String()).InfoContext(ctx, "fee calculated")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	unit, err = s.apply(ctx, unitID, func(state fee.State) (fee.State, error) {
		return state.CalculateTotalFee(unitID)
	})
	return
}

// SetPaymentStatus records the collection status of a billing unit.
func (s *FeeService) SetPaymentStatus(ctx context.Context, principal Principal, unitID, status string) (unit fee.Unit, err error) {
	if s == nil {
		err = fmt.Errorf("FeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetPaymentStatus",
		"staff", principal.StaffName,
		"unit_id", unitID,
		"payment_status", status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set fee payment status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "fee payment status updated")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	var parsed fee.PaymentStatus
	parsed, err = fee.ParsePaymentStatus(status)
	if err != nil {
		err = mapDomainError(err)
		return
	}

	unit, err = s.apply(ctx, unitID, func(state fee.State) (fee.State, error) {
		return state.SetPaymentStatus(unitID, parsed, s.now())
	})
	return
}

// SetDefaults changes the slice-wide default area and price. Non-positive
// values keep the current default.
func (s *FeeService) SetDefaults(ctx context.Context, principal Principal, area, pricePerPing decimal.Decimal) (state fee.State, err error) {
	if s == nil {
		err = fmt.Errorf("FeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetDefaults",
		"staff", principal.StaffName,
		"area", area.String(),
		"price_per_ping", pricePerPing.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set fee defaults", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "fee defaults updated")
	}()

	if err = authorize(principal, RoleManager); err != nil {
		return
	}

	state, err = s.store.update(ctx, func(state fee.State) (fee.State, error) {
		return state.SetDefaults(area, pricePerPing), nil
	})
	return
}

// UpsertUnit registers or replaces a billing unit.
func (s *FeeService) UpsertUnit(ctx context.Context, principal Principal, unit fee.Unit) (err error) {
	if s == nil {
		return fmt.Errorf("FeeService is nil")
	}

	logger := s.loggerWith(ctx, "UpsertUnit",
		"staff", principal.StaffName,
		"unit_id", unit.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert fee unit", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "fee unit upserted")
	}()

	if err = authorize(principal, RoleManager); err != nil {
		return
	}
	if unit.ID == "" {
		vErr := &ValidationError{}
		vErr.add("id", "id is required")
		err = vErr
		return
	}
	if unit.PaymentStatus != "" && !unit.PaymentStatus.Valid() {
		vErr := &ValidationError{}
		vErr.add("paymentStatus", fmt.Sprintf("%s: %q", fee.ErrInvalidPaymentStatus, unit.PaymentStatus))
		err = vErr
		return
	}

	_, err = s.store.update(ctx, func(state fee.State) (fee.State, error) {
		return state.UpsertUnit(unit), nil
	})
	return
}

// ReplaceConfigs swaps in a new fee configuration and recalculates every
// configured unit.
func (s *FeeService) ReplaceConfigs(ctx context.Context, principal Principal, configs FeeConfigs) (stats fee.Stats, err error) {
	if s == nil {
		err = fmt.Errorf("FeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ReplaceConfigs",
		"staff", principal.StaffName,
		"base_configs", len(configs.BaseConfigs),
		"special_configs", len(configs.SpecialConfigs),
		"unit_configs", len(configs.UnitConfigs),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to replace fee configs", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("total_units", stats.TotalUnits).InfoContext(ctx, "fee configs replaced")
	}()

	if err = authorize(principal, RoleManager); err != nil {
		return
	}

	var next fee.State
	next, err = s.store.update(ctx, func(state fee.State) (fee.State, error) {
		state.BaseConfigs = configs.BaseConfigs
		state.SpecialConfigs = configs.SpecialConfigs
		state.UnitConfigs = configs.UnitConfigs
		return state.Recalculate(s.now()), nil
	})
	stats = next.Stats
	return
}

// Recalculate rebuilds the per-unit fee details from the stored configuration.
func (s *FeeService) Recalculate(ctx context.Context, principal Principal) (stats fee.Stats, err error) {
	if s == nil {
		err = fmt.Errorf("FeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Recalculate",
		"staff", principal.StaffName,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to recalculate fees", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("total_units", stats.TotalUnits).InfoContext(ctx, "fees recalculated")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	var next fee.State
	next, err = s.store.update(ctx, func(state fee.State) (fee.State, error) {
		return state.Recalculate(s.now()), nil
	})
	stats = next.Stats
	return
}

func (s *FeeService) apply(ctx context.Context, unitID string, fn func(fee.State) (fee.State, error)) (fee.Unit, error) {
	next, err := s.store.update(ctx, fn)
	if err != nil {
		return fee.Unit{}, mapDomainError(err)
	}
	unit, _ := next.Unit(unitID)
	return unit, nil
}
