package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind names the value shape a rule expects.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindEmail   Kind = "email"
)

// Type is the closed set of typed constraints a rule can carry. The concrete
// variants are StringType, NumberType, BooleanType, DateType and EmailType.
type Type interface {
	Kind() Kind
	sealed()
}

// StringType accepts Go strings. MaxLength counts runes; zero means unlimited.
type StringType struct {
	MaxLength int
}

// NumberType accepts Go numerics and numeric-looking strings. Nil bounds are not checked.
type NumberType struct {
	Min *float64
	Max *float64
}

// BooleanType accepts bools and the literal strings "true" and "false".
type BooleanType struct{}

// DateType accepts anything that resolves to a calendar date.
type DateType struct{}

// EmailType accepts strings shaped like local@domain.tld.
type EmailType struct{}

func (StringType) Kind() Kind  { return KindString }
func (NumberType) Kind() Kind  { return KindNumber }
func (BooleanType) Kind() Kind { return KindBoolean }
func (DateType) Kind() Kind    { return KindDate }
func (EmailType) Kind() Kind   { return KindEmail }

func (StringType) sealed()  {}
func (NumberType) sealed()  {}
func (BooleanType) sealed() {}
func (DateType) sealed()    {}
func (EmailType) sealed()   {}

// Between returns a NumberType bounded on both sides.
func Between(min, max float64) NumberType {
	return NumberType{Min: &min, Max: &max}
}

// AtLeast returns a NumberType with only a lower bound.
func AtLeast(min float64) NumberType {
	return NumberType{Min: &min}
}

// AtMost returns a NumberType with only an upper bound.
func AtMost(max float64) NumberType {
	return NumberType{Max: &max}
}

// Rule describes the checks applied to one field of a record.
//
// A nil Type skips the type check; Pattern then only applies when the value
// happens to be a string. Message, when set, replaces every default message
// produced by the rule.
type Rule struct {
	Field    string
	Required bool
	Type     Type
	Pattern  *regexp.Regexp
	Custom   func(value any) bool
	Message  string
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// IsEmail reports whether s has the local@domain.tld shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsNotBlank reports whether s contains anything besides whitespace.
func IsNotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// InRange reports whether v lies within [min, max].
func InRange(v, min, max float64) bool {
	return v >= min && v <= max
}

// IsDate reports whether value resolves to a valid calendar date.
func IsDate(value any) bool {
	_, ok := toTime(value)
	return ok
}

// HasRequiredFields reports whether every listed key is present in record.
// Presence is all that is checked; nil values count as present.
func HasRequiredFields(record Record, fields ...string) bool {
	if record == nil {
		return false
	}
	for _, field := range fields {
		if _, ok := record[field]; !ok {
			return false
		}
	}
	return true
}

// ToFloat converts Go numerics and numeric-looking strings to float64.
// A string holding only whitespace converts to zero.
func ToFloat(value any) (float64, bool) {
	if f, ok := numeric(value); ok {
		return f, !math.IsNaN(f)
	}
	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Numeric converts native Go numeric values to float64. Strings are rejected.
func Numeric(value any) (float64, bool) {
	return numeric(value)
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, !v.IsZero()
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := numeric(value); ok && !math.IsNaN(ms) && !math.IsInf(ms, 0) {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func isBoolean(value any) bool {
	switch v := value.(type) {
	case bool:
		return true
	case string:
		return v == "true" || v == "false"
	default:
		return false
	}
}
