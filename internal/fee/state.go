package fee

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// State is the fee slice: billing units, fee configuration and the derived
// per-unit details.
type State struct {
	Units               []Unit          `json:"units"`
	BaseConfigs         []BaseConfig    `json:"baseConfigs"`
	SpecialConfigs      []SpecialConfig `json:"specialConfigs"`
	UnitConfigs         []UnitConfig    `json:"unitConfigs"`
	Details             []Detail        `json:"details"`
	Stats               Stats           `json:"stats"`
	DefaultArea         decimal.Decimal `json:"defaultArea"`
	DefaultPricePerPing decimal.Decimal `json:"defaultPricePerPing"`
	Error               string          `json:"error,omitempty"`
}

// NewState returns an empty slice with the stock defaults.
func NewState() State {
	return State{DefaultArea: DefaultArea, DefaultPricePerPing: DefaultPricePerPing}
}

func (s State) clone() State {
	s.Units = slices.Clone(s.Units)
	s.Details = slices.Clone(s.Details)
	return s
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.Units, func(u Unit) bool { return u.ID == id })
}

// Unit returns the unit with the given id.
func (s State) Unit(id string) (Unit, bool) {
	i := s.index(id)
	if i < 0 {
		return Unit{}, false
	}
	return s.Units[i], true
}

func (s State) defaults() (decimal.Decimal, decimal.Decimal) {
	area, price := s.DefaultArea, s.DefaultPricePerPing
	if area.IsZero() && price.IsZero() {
		return DefaultArea, DefaultPricePerPing
	}
	return area, price
}

// SetDefaults replaces the slice defaults. Non-positive values are ignored.
func (s State) SetDefaults(area, pricePerPing decimal.Decimal) State {
	next := s.clone()
	if area.IsPositive() {
		next.DefaultArea = area
	}
	if pricePerPing.IsPositive() {
		next.DefaultPricePerPing = pricePerPing
	}
	return next
}

// CalculateTotalFee fills in area, price and total for one unit. A custom
// area or price, including zero, takes precedence over the slice default.
func (s State) CalculateTotalFee(id string) (State, error) {
	i := s.index(id)
	if i < 0 {
		err := fmt.Errorf("%w: %s", ErrUnitNotFound, id)
		next := s.clone()
		next.Error = err.Error()
		return next, err
	}

	next := s.clone()
	area, price := next.defaults()
	unit := next.Units[i]
	if unit.CustomArea != nil {
		area = *unit.CustomArea
	}
	if unit.CustomPrice != nil {
		price = *unit.CustomPrice
	}
	unit.Area = area
	unit.PricePerPing = price
	unit.TotalFee = TotalFee(area, price)
	next.Units[i] = unit
	next.Error = ""
	return next, nil
}

// SetPaymentStatus records a collection status and stamps the payment date
// when the unit becomes paid.
func (s State) SetPaymentStatus(id string, status PaymentStatus, now time.Time) (State, error) {
	if !status.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, status)
	}
	i := s.index(id)
	if i < 0 {
		err := fmt.Errorf("%w: %s", ErrUnitNotFound, id)
		next := s.clone()
		next.Error = err.Error()
		return next, err
	}

	next := s.clone()
	unit := next.Units[i]
	unit.PaymentStatus = status
	if status == PaymentPaid {
		paidAt := now
		unit.LastPaymentDate = &paidAt
	}
	next.Units[i] = unit
	next.Error = ""
	return next, nil
}

// UpsertUnit inserts or replaces a unit by id.
func (s State) UpsertUnit(unit Unit) State {
	next := s.clone()
	if unit.PaymentStatus == "" {
		unit.PaymentStatus = PaymentUnpaid
	}
	if i := next.index(unit.ID); i >= 0 {
		next.Units[i] = unit
	} else {
		next.Units = append(next.Units, unit)
	}
	return next
}

// Recalculate rebuilds the per-unit details and statistics from the slice's
// unit and fee configs.
func (s State) Recalculate(now time.Time) State {
	next := s.clone()
	next.Details = CalculateAll(s.UnitConfigs, s.BaseConfigs, s.SpecialConfigs, now)
	next.Stats = ComputeStats(next.Details)
	next.Error = ""
	return next
}
