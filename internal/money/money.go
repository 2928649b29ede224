// Package money holds the decimal helpers used for balances, fees and their
// display. Binary floats never take part in currency arithmetic.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidAmount reports an amount that cannot be parsed or is not allowed.
var ErrInvalidAmount = errors.New("invalid amount")

var printer = message.NewPrinter(language.English)

// FromFloat converts a float received from a loosely typed source. The
// shortest decimal representation of f is used, so 0.1 becomes exactly 0.1.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// FromInt converts a whole amount.
func FromInt(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

// Parse reads a decimal amount such as "1200" or "99.95".
func Parse(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// MustParse is Parse for constants in tests and fixtures.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Positive returns ErrInvalidAmount unless d > 0.
func Positive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, d.String())
	}
	return nil
}

// RoundWhole rounds half away from zero to a whole currency unit.
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Format renders d with thousands separators and at most two fraction
// digits, e.g. 1234.5 as "1,234.5". The digits come from the decimal itself,
// so large balances print exactly.
func Format(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	frac = strings.TrimRight(frac, "0")

	out := sign + groupThousands(whole)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func groupThousands(digits string) string {
	if i, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return printer.Sprintf("%v", number.Decimal(i))
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDollars is Format prefixed with a dollar sign.
func FormatDollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + Format(d.Neg())
	}
	return "$" + Format(d)
}
