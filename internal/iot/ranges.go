// Package iot validates sensor telemetry and tracks device state and events.
package iot

import (
	"fmt"
	"maps"
	"slices"

	"github.com/example/civisos/internal/validation"
)

// Range is an inclusive bound for one named reading.
type Range struct {
	Min  float64
	Max  float64
	Unit string
}

// Ranges is the plausibility table applied to every device type.
var Ranges = map[string]Range{
	"temperature": {Min: -50, Max: 100, Unit: "°C"},
	"humidity":    {Min: 0, Max: 100, Unit: "%"},
	"pressure":    {Min: 800, Max: 1200, Unit: "hPa"},
	"co2":         {Min: 0, Max: 5000, Unit: "ppm"},
	"pm25":        {Min: 0, Max: 500, Unit: "μg/m³"},
	"voltage":     {Min: 0, Max: 500, Unit: "V"},
	"current":     {Min: 0, Max: 100, Unit: "A"},
	"power":       {Min: 0, Max: 50000, Unit: "W"},
}

// ValidateReadings checks each numeric reading whose key is in Ranges.
// Unknown keys and non-numeric values pass unchecked. deviceType does not
// select a different table. Errors are ordered by key.
func ValidateReadings(deviceType string, data map[string]any) validation.Result {
	var errs validation.Errors
	for _, key := range slices.Sorted(maps.Keys(data)) {
		r, known := Ranges[key]
		if !known {
			continue
		}
		v, numeric := validation.Numeric(data[key])
		if !numeric {
			continue
		}
		if !validation.InRange(v, r.Min, r.Max) {
			errs.Add(validation.FieldError{
				Field:   key,
				Message: fmt.Sprintf("%s out of range (%g to %g %s)", key, r.Min, r.Max, r.Unit),
				Value:   data[key],
			})
		}
	}
	return validation.Result{Valid: len(errs) == 0, Errors: errs}
}
