package validation_test

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/civisos/internal/validation"
)

func TestValidate_Required(t *testing.T) {
	t.Run("reports empty required field once", func(t *testing.T) {
		record := validation.Record{"id": "123", "name": ""}
		rules := []validation.Rule{
			{Field: "id", Required: true, Type: validation.StringType{}},
			{Field: "name", Required: true, Type: validation.StringType{}},
		}

		result := validation.Validate(record, rules)

		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "name", result.Errors[0].Field)
		assert.Equal(t, "name is required", result.Errors[0].Message)
	})

	t.Run("treats absent and nil values as empty", func(t *testing.T) {
		record := validation.Record{"nil": nil}
		rules := []validation.Rule{
			{Field: "nil", Required: true},
			{Field: "missing", Required: true, Type: validation.AtLeast(1)},
		}

		result := validation.Validate(record, rules)

		assert.Equal(t, []string{"nil", "missing"}, result.Errors.Fields())
	})

	t.Run("skips every check for optional empty value", func(t *testing.T) {
		record := validation.Record{"note": ""}
		rules := []validation.Rule{
			{
				Field:   "note",
				Type:    validation.EmailType{},
				Pattern: regexp.MustCompile(`^x$`),
				Custom:  func(any) bool { return false },
			},
		}

		assert.True(t, validation.Validate(record, rules).Valid)
	})

	t.Run("zero and false are not empty", func(t *testing.T) {
		record := validation.Record{"count": 0, "flag": false}
		rules := []validation.Rule{
			{Field: "count", Required: true, Type: validation.NumberType{}},
			{Field: "flag", Required: true, Type: validation.BooleanType{}},
		}

		assert.True(t, validation.Validate(record, rules).Valid)
	})
}

func TestValidate_Types(t *testing.T) {
	tests := []struct {
		name  string
		typ   validation.Type
		value any
		valid bool
	}{
		{"string accepts string", validation.StringType{}, "abc", true},
		{"string rejects number", validation.StringType{}, 12, false},
		{"number accepts float", validation.NumberType{}, 12.5, true},
		{"number accepts int", validation.NumberType{}, 7, true},
		{"number accepts numeric string", validation.NumberType{}, " 42.1 ", true},
		{"number accepts json number", validation.NumberType{}, json.Number("3"), true},
		{"number rejects words", validation.NumberType{}, "not a number", false},
		{"number rejects bool", validation.NumberType{}, true, false},
		{"boolean accepts bool", validation.BooleanType{}, false, true},
		{"boolean accepts literal", validation.BooleanType{}, "true", true},
		{"boolean rejects other strings", validation.BooleanType{}, "yes", false},
		{"date accepts iso date", validation.DateType{}, "2026-02-10", true},
		{"date accepts rfc3339", validation.DateType{}, "2026-02-10T09:00:00+08:00", true},
		{"date accepts time value", validation.DateType{}, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"date accepts epoch millis", validation.DateType{}, 1760000000000, true},
		{"date rejects garbage", validation.DateType{}, "someday", false},
		{"date rejects impossible day", validation.DateType{}, "2026-02-30", false},
		{"email accepts simple address", validation.EmailType{}, "chen@example.com", true},
		{"email rejects missing tld", validation.EmailType{}, "chen@example", false},
		{"email rejects spaces", validation.EmailType{}, "chen wu@example.com", false},
		{"email rejects non-string", validation.EmailType{}, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validation.Validate(
				validation.Record{"field": tt.value},
				[]validation.Rule{{Field: "field", Type: tt.typ}},
			)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0].Message, "invalid type")
				assert.Equal(t, tt.value, result.Errors[0].Value)
			}
		})
	}
}

func TestValidate_TypeFailureStopsRule(t *testing.T) {
	calls := 0
	rules := []validation.Rule{
		{
			Field:  "age",
			Type:   validation.Between(0, 120),
			Custom: func(any) bool { calls++; return false },
		},
	}

	result := validation.Validate(validation.Record{"age": "old"}, rules)

	require.Len(t, result.Errors, 1)
	assert.Zero(t, calls)
}

func TestValidate_NumberBounds(t *testing.T) {
	t.Run("reports upper bound", func(t *testing.T) {
		result := validation.Validate(
			validation.Record{"age": 150},
			[]validation.Rule{{Field: "age", Required: true, Type: validation.Between(0, 120)}},
		)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "age must not be greater than 120", result.Errors[0].Message)
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		rules := []validation.Rule{{Field: "age", Type: validation.Between(0, 120)}}
		assert.True(t, validation.Validate(validation.Record{"age": 0}, rules).Valid)
		assert.True(t, validation.Validate(validation.Record{"age": "120"}, rules).Valid)
	})

	t.Run("both bounds can fire", func(t *testing.T) {
		min, max := 10.0, 5.0
		result := validation.Validate(
			validation.Record{"n": 7},
			[]validation.Rule{{Field: "n", Type: validation.NumberType{Min: &min, Max: &max}}},
		)
		assert.Len(t, result.Errors, 2)
	})

	t.Run("whitespace counts as zero", func(t *testing.T) {
		rules := []validation.Rule{{Field: "fee", Required: true, Type: validation.Between(0, 10)}}
		assert.True(t, validation.Validate(validation.Record{"fee": "   "}, rules).Valid)

		result := validation.Validate(validation.Record{"fee": "  "}, []validation.Rule{{Field: "fee", Type: validation.AtLeast(1)}})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "fee must not be less than 1", result.Errors[0].Message)

		n, ok := validation.ToFloat("\t ")
		assert.True(t, ok)
		assert.Zero(t, n)
	})

	t.Run("one-sided bounds", func(t *testing.T) {
		assert.False(t, validation.Validate(validation.Record{"n": -1}, []validation.Rule{{Field: "n", Type: validation.AtLeast(0)}}).Valid)
		assert.False(t, validation.Validate(validation.Record{"n": 11}, []validation.Rule{{Field: "n", Type: validation.AtMost(10)}}).Valid)
	})
}

func TestValidate_StringLength(t *testing.T) {
	rules := []validation.Rule{{Field: "name", Type: validation.StringType{MaxLength: 3}}}

	assert.True(t, validation.Validate(validation.Record{"name": "王小明"}, rules).Valid)

	result := validation.Validate(validation.Record{"name": "abcd"}, rules)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "name must not exceed 3 characters", result.Errors[0].Message)
}

func TestValidate_PatternAndCustom(t *testing.T) {
	plate := regexp.MustCompile(`^[A-Z]{3}-\d{4}$`)

	t.Run("pattern mismatch", func(t *testing.T) {
		result := validation.Validate(
			validation.Record{"plate": "abc-1234"},
			[]validation.Rule{{Field: "plate", Type: validation.StringType{}, Pattern: plate}},
		)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "plate has an invalid format", result.Errors[0].Message)
	})

	t.Run("pattern ignores non-string values without type", func(t *testing.T) {
		result := validation.Validate(
			validation.Record{"plate": 12},
			[]validation.Rule{{Field: "plate", Pattern: plate}},
		)
		assert.True(t, result.Valid)
	})

	t.Run("custom message replaces defaults", func(t *testing.T) {
		result := validation.Validate(
			validation.Record{"unit": "B-12"},
			[]validation.Rule{{
				Field:   "unit",
				Custom:  func(v any) bool { return strings.HasPrefix(v.(string), "A") },
				Message: "unit must belong to building A",
			}},
		)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "unit must belong to building A", result.Errors[0].Message)
	})

	t.Run("range, pattern and custom all collect", func(t *testing.T) {
		result := validation.Validate(
			validation.Record{"code": "12345"},
			[]validation.Rule{{
				Field:   "code",
				Type:    validation.StringType{MaxLength: 4},
				Pattern: regexp.MustCompile(`^[a-z]+$`),
				Custom:  func(any) bool { return false },
			}},
		)
		assert.Len(t, result.Errors, 3)
	})
}

func TestValidate_RemovingSatisfiedRuleKeepsValid(t *testing.T) {
	record := validation.Record{"name": "Lin", "age": 30, "email": "lin@example.com"}
	rules := []validation.Rule{
		{Field: "name", Required: true, Type: validation.StringType{MaxLength: 10}},
		{Field: "age", Required: true, Type: validation.Between(0, 120)},
		{Field: "email", Type: validation.EmailType{}},
	}
	require.True(t, validation.Validate(record, rules).Valid)

	for i := range rules {
		subset := append(append([]validation.Rule{}, rules[:i]...), rules[i+1:]...)
		assert.True(t, validation.Validate(record, subset).Valid, fmt.Sprintf("without rule %d", i))
	}
}

func TestValidateAll(t *testing.T) {
	records := []validation.Record{
		{"age": 10},
		{"age": "x"},
		{"age": 200},
	}
	failures := validation.ValidateAll(records, []validation.Rule{{Field: "age", Type: validation.Between(0, 120)}})

	assert.Len(t, failures, 2)
	assert.Contains(t, failures, 1)
	assert.Contains(t, failures, 2)
}

func TestResultErr(t *testing.T) {
	ok := validation.Validate(validation.Record{}, nil)
	assert.NoError(t, ok.Err())

	bad := validation.Validate(validation.Record{}, []validation.Rule{{Field: "id", Required: true}})
	err := bad.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: id: id is required", err.Error())

	extracted := validation.Extract(fmt.Errorf("import row 3: %w", err))
	assert.True(t, extracted.Has("id"))
	assert.Equal(t, []string{"id is required"}, extracted.Get("id"))
}

func TestHelpers(t *testing.T) {
	assert.True(t, validation.IsEmail("a@b.co"))
	assert.False(t, validation.IsNotBlank("   "))
	assert.True(t, validation.InRange(5, 5, 5))
	assert.True(t, validation.HasRequiredFields(validation.Record{"a": nil, "b": 1}, "a", "b"))
	assert.False(t, validation.HasRequiredFields(validation.Record{"a": 1}, "a", "b"))
	assert.False(t, validation.HasRequiredFields(nil, "a"))
}
