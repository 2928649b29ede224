// Package fee computes monthly management fees for residential units.
//
// All arithmetic runs on shopspring/decimal; an area of 100.5 ping at 88.8
// per ping is exactly 8924.4.
package fee

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/money"
)

var (
	// ErrUnitNotFound reports an unknown fee unit id.
	ErrUnitNotFound = errors.New("fee unit not found")
	// ErrInvalidPaymentStatus reports a payment status outside the closed set.
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// Slice defaults used when a unit carries no custom area or price.
var (
	DefaultArea         = decimal.NewFromInt(30)
	DefaultPricePerPing = decimal.NewFromInt(100)
)

// PaymentStatus tracks collection of a unit's fee.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentUnpaid, PaymentPartial:
		return true
	}
	return false
}

// ParsePaymentStatus converts raw input to a PaymentStatus.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, raw)
	}
	return s, nil
}

// Unit is the billing record of one household.
type Unit struct {
	ID              string           `json:"id" yaml:"id"`
	UnitID          string           `json:"unitId" yaml:"unit_id"`
	BuildingID      string           `json:"buildingId,omitempty" yaml:"building_id"`
	Area            decimal.Decimal  `json:"area" yaml:"-"`
	PricePerPing    decimal.Decimal  `json:"pricePerPing" yaml:"-"`
	TotalFee        decimal.Decimal  `json:"totalFee" yaml:"-"`
	PaymentStatus   PaymentStatus    `json:"paymentStatus" yaml:"payment_status"`
	LastPaymentDate *time.Time       `json:"lastPaymentDate,omitempty" yaml:"-"`
	CustomArea      *decimal.Decimal `json:"customArea,omitempty" yaml:"custom_area"`
	CustomPrice     *decimal.Decimal `json:"customPrice,omitempty" yaml:"custom_price"`
	Notes           string           `json:"notes,omitempty" yaml:"notes"`
}

// Special reports whether the unit overrides either slice default.
func (u Unit) Special() bool {
	return u.CustomArea != nil || u.CustomPrice != nil
}

// TotalFee returns area × price without rounding.
func TotalFee(area, pricePerPing decimal.Decimal) decimal.Decimal {
	return area.Mul(pricePerPing)
}

// MonthlyFee returns area × price rounded half away from zero to a whole unit.
func MonthlyFee(area, pricePerPing decimal.Decimal) decimal.Decimal {
	return money.RoundWhole(TotalFee(area, pricePerPing))
}
