// Package validation checks loosely typed records against declarative field
// rules.
//
// Records arrive from CSV rows, JSON payloads and device telemetry, so values
// are untyped. A Rule names a field, whether it is required, and optionally a
// typed constraint (StringType, NumberType, BooleanType, DateType or
// EmailType), a regular expression and a custom predicate:
//
//	result := validation.Validate(record, []validation.Rule{
//	    {Field: "name", Required: true, Type: validation.StringType{MaxLength: 50}},
//	    {Field: "age", Type: validation.Between(0, 120)},
//	    {Field: "email", Type: validation.EmailType{}},
//	})
//	if !result.Valid {
//	    for _, fe := range result.Errors {
//	        // fe.Field, fe.Message, fe.Value
//	    }
//	}
//
// Validate never fails with an error of its own; violations are returned as
// data. Result.Err adapts them to the error interface when callers prefer
// errors.As.
package validation
