package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Record is a loosely typed row, such as a decoded JSON object or a CSV line
// keyed by header.
type Record map[string]any

// Result is the outcome of validating one record.
type Result struct {
	Valid  bool
	Errors Errors
}

// Err returns the collected errors, or nil when the record is valid.
func (r Result) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

// Validate applies rules to record in order and collects field errors.
//
// Each rule stops at its first failing category: a missing required value or
// a type mismatch skips the remaining checks for that rule, while range,
// length, pattern and custom checks all run once the type check passes.
func Validate(record Record, rules []Rule) Result {
	var errs Errors

	for _, rule := range rules {
		value, present := record[rule.Field]
		empty := !present || isEmpty(value)

		if empty {
			if rule.Required {
				errs.Add(newError(rule, value, "%s is required", rule.Field))
			}
			continue
		}

		if rule.Type != nil && !typeMatches(rule.Type, value) {
			errs.Add(newError(rule, value, "%s has an invalid type, expected %s", rule.Field, rule.Type.Kind()))
			continue
		}

		switch t := rule.Type.(type) {
		case NumberType:
			n, _ := ToFloat(value)
			if t.Min != nil && n < *t.Min {
				errs.Add(newError(rule, value, "%s must not be less than %v", rule.Field, *t.Min))
			}
			if t.Max != nil && n > *t.Max {
				errs.Add(newError(rule, value, "%s must not be greater than %v", rule.Field, *t.Max))
			}
		case StringType:
			if t.MaxLength > 0 && utf8.RuneCountInString(value.(string)) > t.MaxLength {
				errs.Add(newError(rule, value, "%s must not exceed %d characters", rule.Field, t.MaxLength))
			}
		}

		if rule.Pattern != nil {
			if s, ok := value.(string); ok && !rule.Pattern.MatchString(s) {
				errs.Add(newError(rule, value, "%s has an invalid format", rule.Field))
			}
		}

		if rule.Custom != nil && !rule.Custom(value) {
			errs.Add(newError(rule, value, "%s failed validation", rule.Field))
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateAll validates each record and keys the failures by row index.
func ValidateAll(records []Record, rules []Rule) map[int]Errors {
	failures := make(map[int]Errors)
	for i, record := range records {
		if result := Validate(record, rules); !result.Valid {
			failures[i] = result.Errors
		}
	}
	return failures
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

func typeMatches(t Type, value any) bool {
	switch t.(type) {
	case StringType:
		_, ok := value.(string)
		return ok
	case NumberType:
		_, ok := ToFloat(value)
		return ok
	case BooleanType:
		return isBoolean(value)
	case DateType:
		return IsDate(value)
	case EmailType:
		s, ok := value.(string)
		return ok && IsEmail(s)
	default:
		return true
	}
}

func newError(rule Rule, value any, format string, args ...any) FieldError {
	message := rule.Message
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf(format, args...)
	}
	return FieldError{Field: rule.Field, Message: message, Value: value}
}
