package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/example/civisos/internal/facility"
	"github.com/example/civisos/internal/parking"
	"github.com/example/civisos/internal/scheduler"
	"github.com/example/civisos/internal/validation"
)

// Import kinds accepted by ImportService.
const (
	ImportResidents     = "residents"
	ImportParkingSpaces = "parking_spaces"
	ImportBookings      = "bookings"
)

var (
	phonePattern  = regexp.MustCompile(`^[0-9+\-\s()]{6,20}$`)
	residentKinds = map[string]bool{"owner": true, "tenant": true, "household": true}
)

var importRules = map[string][]validation.Rule{
	ImportResidents: {
		{Field: "id", Required: true, Type: validation.StringType{MaxLength: 64}},
		{Field: "name", Required: true, Type: validation.StringType{MaxLength: 50}},
		{Field: "buildingId", Required: true, Type: validation.StringType{}},
		{Field: "unitId", Required: true, Type: validation.StringType{}},
		{Field: "phone", Type: validation.StringType{}, Pattern: phonePattern, Message: "phone must contain 6 to 20 digits or separators"},
		{Field: "email", Type: validation.EmailType{}},
		{Field: "moveInDate", Type: validation.DateType{}},
		{Field: "residentType", Type: validation.StringType{}, Custom: stringIn(residentKinds), Message: "residentType must be owner, tenant or household"},
	},
	ImportParkingSpaces: {
		{Field: "id", Required: true, Type: validation.StringType{MaxLength: 64}},
		{Field: "area", Required: true, Type: validation.StringType{MaxLength: 20}},
		{Field: "number", Required: true, Type: validation.StringType{MaxLength: 20}},
		{Field: "type", Type: validation.StringType{}, Custom: stringIn(map[string]bool{
			string(parking.TypeResident): true,
			string(parking.TypeVisitor):  true,
			string(parking.TypeReserved): true,
			string(parking.TypeDisabled): true,
		}), Message: "type must be resident, visitor, reserved or disabled"},
		{Field: "status", Type: validation.StringType{}, Custom: func(v any) bool {
			return parking.Status(v.(string)).Valid()
		}, Message: "status must be available, occupied, reserved or maintenance"},
	},
	ImportBookings: {
		{Field: "id", Required: true, Type: validation.StringType{MaxLength: 64}},
		{Field: "facilityId", Required: true, Type: validation.StringType{}},
		{Field: "bookingDate", Required: true, Type: validation.DateType{}},
		{Field: "startTime", Required: true, Type: validation.StringType{}, Custom: isClock, Message: "startTime must be a HH:MM time of day"},
		{Field: "endTime", Required: true, Type: validation.StringType{}, Custom: isClock, Message: "endTime must be a HH:MM time of day"},
		{Field: "bookingType", Type: validation.StringType{}, Custom: func(v any) bool {
			return facility.BookingType(v.(string)).Valid()
		}, Message: "bookingType must be resident or external"},
		{Field: "fee", Type: validation.AtLeast(0)},
		{Field: "paymentStatus", Type: validation.StringType{}, Custom: func(v any) bool {
			_, err := facility.ParsePaymentStatus(v.(string))
			return err == nil
		}, Message: "paymentStatus must be paid, unpaid, pending or refunded"},
	},
}

func stringIn(allowed map[string]bool) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && allowed[s]
	}
}

func isClock(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := scheduler.ParseClock(s)
	return err == nil
}

// missingColumns treats the first record as the header row and lists the
// required fields it lacks, in rule order.
func missingColumns(header validation.Record, rules []validation.Rule) []string {
	required := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.Required {
			required = append(required, rule.Field)
		}
	}
	if validation.HasRequiredFields(header, required...) {
		return nil
	}
	var missing []string
	for _, field := range required {
		if !validation.HasRequiredFields(header, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// ImportKinds lists the record kinds that can be validated.
func ImportKinds() []string {
	kinds := make([]string, 0, len(importRules))
	for kind := range importRules {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// ImportFailure lists the field errors of one rejected row.
type ImportFailure struct {
	Row    int                  `json:"row"`
	Errors []ImportFieldFailure `json:"errors"`
}

// ImportFieldFailure is one field error of a rejected row.
type ImportFieldFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ImportReport summarises a validation run over raw records.
type ImportReport struct {
	Kind     string          `json:"kind"`
	Total    int             `json:"total"`
	Valid    int             `json:"valid"`
	Invalid  int             `json:"invalid"`
	Failures []ImportFailure `json:"failures"`
}

// ImportService checks raw records against the rule set of a kind before
// they are accepted into the system.
type ImportService struct {
	logger *slog.Logger
}

// NewImportService constructs an import service.
func NewImportService(logger *slog.Logger) *ImportService {
	return &ImportService{logger: defaultLogger(logger)}
}

// ValidateRecords runs the kind's rules over every record. Row numbers in
// the report are zero-based positions in records.
func (s *ImportService) ValidateRecords(ctx context.Context, principal Principal, kind string, records []validation.Record) (report ImportReport, err error) {
	if s == nil {
		err = fmt.Errorf("ImportService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "ImportService", "ValidateRecords",
		"staff", principal.StaffName,
		"kind", kind,
		"record_count", len(records),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to validate records", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("invalid", report.Invalid).InfoContext(ctx, "records validated")
	}()

	if err = authorize(principal, RoleStaff); err != nil {
		return
	}

	rules, ok := importRules[kind]
	if !ok {
		err = fmt.Errorf("%w: import kind %q", ErrNotFound, kind)
		return
	}

	if len(records) > 0 {
		if missing := missingColumns(records[0], rules); len(missing) > 0 {
			vErr := &ValidationError{}
			vErr.add("columns", "missing required columns: "+strings.Join(missing, ", "))
			err = vErr
			return
		}
	}

	failures := validation.ValidateAll(records, rules)
	rows := make([]int, 0, len(failures))
	for row := range failures {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	report = ImportReport{
		Kind:     kind,
		Total:    len(records),
		Valid:    len(records) - len(failures),
		Invalid:  len(failures),
		Failures: make([]ImportFailure, 0, len(rows)),
	}
	for _, row := range rows {
		failure := ImportFailure{Row: row}
		for _, fe := range failures[row] {
			failure.Errors = append(failure.Errors, ImportFieldFailure{Field: fe.Field, Message: fe.Message, Value: fe.Value})
		}
		report.Failures = append(report.Failures, failure)
	}
	return
}
