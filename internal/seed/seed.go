// Package seed primes an empty store from a YAML file.
//
// A seed file lists staff accounts, parking spaces, facilities, devices and
// the fee configuration:
//
//	staff:
//	  - name: admin
//	    role: admin
//	    pin: "0000"
//	parking_spaces:
//	  - {id: A-01, area: A, number: "01", type: resident, status: available}
//	fees:
//	  default_area: 30
//	  default_price_per_ping: 100
//
// Apply writes the file through the application services as the system
// principal and does nothing once any staff account exists.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/facility"
	"github.com/example/civisos/internal/fee"
	"github.com/example/civisos/internal/iot"
	"github.com/example/civisos/internal/parking"
)

var (
	ErrFailedToParseSeed = errors.New("seed: failed to parse")
	ErrNoAdmin           = errors.New("seed: at least one admin account is required")
)

// File is the decoded seed document.
type File struct {
	Staff         []StaffEntry        `yaml:"staff"`
	ParkingSpaces []parking.Space     `yaml:"parking_spaces"`
	Facilities    []facility.Facility `yaml:"facilities"`
	Devices       []iot.Device        `yaml:"devices"`
	Fees          Fees                `yaml:"fees"`
}

// StaffEntry is a staff account with its PIN in clear text. The PIN is
// hashed by the staff service before it is stored.
type StaffEntry struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
	PIN  string `yaml:"pin"`
}

// Fees holds the slice defaults, the per-unit records and the building configs.
type Fees struct {
	DefaultArea         *decimal.Decimal       `yaml:"default_area"`
	DefaultPricePerPing *decimal.Decimal       `yaml:"default_price_per_ping"`
	Units               []fee.Unit             `yaml:"units"`
	Configs             application.FeeConfigs `yaml:",inline"`
}

func (f Fees) hasConfigs() bool {
	return len(f.Configs.BaseConfigs) > 0 || len(f.Configs.SpecialConfigs) > 0 || len(f.Configs.UnitConfigs) > 0
}

// Parse decodes a seed document. Unknown keys are rejected so typos in the
// file surface at start-up.
func Parse(r io.Reader) (File, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, errors.Join(ErrFailedToParseSeed, err)
	}
	return file, nil
}

// Load reads and parses the seed file at path.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Services are the write paths a seed needs.
type Services struct {
	Staff interface {
		HasStaff(ctx context.Context) (bool, error)
		CreateStaff(ctx context.Context, params application.CreateStaffParams) (application.Staff, error)
	}
	Parking interface {
		UpsertSpace(ctx context.Context, principal application.Principal, space parking.Space) error
	}
	Facility interface {
		UpsertFacility(ctx context.Context, principal application.Principal, f facility.Facility) error
	}
	Devices interface {
		UpsertDevice(ctx context.Context, principal application.Principal, device iot.Device) error
	}
	Fees interface {
		SetDefaults(ctx context.Context, principal application.Principal, area, pricePerPing decimal.Decimal) (fee.State, error)
		UpsertUnit(ctx context.Context, principal application.Principal, unit fee.Unit) error
		ReplaceConfigs(ctx context.Context, principal application.Principal, configs application.FeeConfigs) (fee.Stats, error)
	}
}

// Result counts what Apply wrote.
type Result struct {
	Skipped    bool
	Staff      int
	Spaces     int
	Facilities int
	Devices    int
	FeeUnits   int
}

// Apply writes file through services unless the store already has staff.
func Apply(ctx context.Context, services Services, file File, logger *slog.Logger) (result Result, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "seed")

	if services.Staff == nil {
		return result, fmt.Errorf("seed: staff service is required")
	}

	var seeded bool
	seeded, err = services.Staff.HasStaff(ctx)
	if err != nil {
		return result, fmt.Errorf("seed: check staff: %w", err)
	}
	if seeded {
		logger.InfoContext(ctx, "store already seeded, skipping")
		result.Skipped = true
		return result, nil
	}

	if !hasAdmin(file.Staff) {
		return result, ErrNoAdmin
	}

	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "seed failed", "error", err, "error_kind", application.ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "seed applied",
			"staff", result.Staff,
			"spaces", result.Spaces,
			"facilities", result.Facilities,
			"devices", result.Devices,
			"fee_units", result.FeeUnits,
		)
	}()

	system := application.SystemPrincipal

	for _, entry := range file.Staff {
		role, roleErr := application.ParseRole(entry.Role)
		if roleErr != nil {
			return result, fmt.Errorf("seed staff %q: %w", entry.Name, roleErr)
		}
		if _, err = services.Staff.CreateStaff(ctx, application.CreateStaffParams{
			Principal: system,
			Name:      entry.Name,
			Role:      role,
			PIN:       entry.PIN,
		}); err != nil {
			return result, fmt.Errorf("seed staff %q: %w", entry.Name, err)
		}
		result.Staff++
	}

	if len(file.ParkingSpaces) > 0 && services.Parking != nil {
		for _, space := range file.ParkingSpaces {
			if err = services.Parking.UpsertSpace(ctx, system, space); err != nil {
				return result, fmt.Errorf("seed parking space %q: %w", space.ID, err)
			}
			result.Spaces++
		}
	}

	if len(file.Facilities) > 0 && services.Facility != nil {
		for _, f := range file.Facilities {
			if err = services.Facility.UpsertFacility(ctx, system, f); err != nil {
				return result, fmt.Errorf("seed facility %q: %w", f.ID, err)
			}
			result.Facilities++
		}
	}

	if len(file.Devices) > 0 && services.Devices != nil {
		for _, device := range file.Devices {
			if err = services.Devices.UpsertDevice(ctx, system, device); err != nil {
				return result, fmt.Errorf("seed device %q: %w", device.ID, err)
			}
			result.Devices++
		}
	}

	if services.Fees != nil {
		if err = applyFees(ctx, services, file.Fees, &result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func applyFees(ctx context.Context, services Services, fees Fees, result *Result) error {
	system := application.SystemPrincipal

	if fees.DefaultArea != nil || fees.DefaultPricePerPing != nil {
		state := fee.NewState()
		area, price := state.DefaultArea, state.DefaultPricePerPing
		if fees.DefaultArea != nil {
			area = *fees.DefaultArea
		}
		if fees.DefaultPricePerPing != nil {
			price = *fees.DefaultPricePerPing
		}
		if _, err := services.Fees.SetDefaults(ctx, system, area, price); err != nil {
			return fmt.Errorf("seed fee defaults: %w", err)
		}
	}

	for _, unit := range fees.Units {
		if err := services.Fees.UpsertUnit(ctx, system, unit); err != nil {
			return fmt.Errorf("seed fee unit %q: %w", unit.ID, err)
		}
		result.FeeUnits++
	}

	if fees.hasConfigs() {
		if _, err := services.Fees.ReplaceConfigs(ctx, system, fees.Configs); err != nil {
			return fmt.Errorf("seed fee configs: %w", err)
		}
	}
	return nil
}

func hasAdmin(entries []StaffEntry) bool {
	for _, entry := range entries {
		if role, err := application.ParseRole(entry.Role); err == nil && role == application.RoleAdmin {
			return true
		}
	}
	return false
}
