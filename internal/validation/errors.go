package validation

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes one failed check on one field.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

// Errors collects field errors in the order they were produced.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *Errors) Add(err FieldError) {
	*e = append(*e, err)
}

// Has reports whether any error was recorded for field.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Get returns the messages recorded for field.
func (e Errors) Get(field string) []string {
	var messages []string
	for _, fe := range e {
		if fe.Field == field {
			messages = append(messages, fe.Message)
		}
	}
	return messages
}

// Fields returns the distinct failing fields in first-seen order.
func (e Errors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, fe := range e {
		if !seen[fe.Field] {
			fields = append(fields, fe.Field)
			seen[fe.Field] = true
		}
	}
	return fields
}

// Extract returns the Errors carried by err, if any.
func Extract(err error) Errors {
	if err == nil {
		return nil
	}
	var errs Errors
	if errors.As(err, &errs) {
		return errs
	}
	return nil
}
