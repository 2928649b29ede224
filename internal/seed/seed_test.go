package seed_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/parking"
	"github.com/example/civisos/internal/persistence/memory"
	"github.com/example/civisos/internal/seed"
)

var errMismatch = errors.New("pin mismatch")

type stack struct {
	services seed.Services
	staff    *application.StaffService
	parking  *application.ParkingService
	facility *application.FacilityService
	devices  *application.DeviceService
	fees     *application.FeeService
}

func newStack(t *testing.T) stack {
	t.Helper()

	store := memory.Open()
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	ids := func() string { return "id" }

	s := stack{
		staff: application.NewStaffServiceWithLogger(store,
			func(encoded, pin string) error {
				if encoded != "plain:"+pin {
					return errMismatch
				}
				return nil
			},
			func(pin string) (string, error) { return "plain:" + pin, nil },
			now, logger),
		parking:  application.NewParkingServiceWithLogger(store, now, logger),
		facility: application.NewFacilityServiceWithLogger(store, ids, now, logger),
		devices:  application.NewDeviceServiceWithLogger(store, ids, now, 10, logger),
		fees:     application.NewFeeServiceWithLogger(store, now, logger),
	}
	s.services = seed.Services{
		Staff:    s.staff,
		Parking:  s.parking,
		Facility: s.facility,
		Devices:  s.devices,
		Fees:     s.fees,
	}
	return s
}

func TestLoad(t *testing.T) {
	file, err := seed.Load("testdata/seed.yaml")
	require.NoError(t, err)

	assert.Len(t, file.Staff, 2)
	assert.Len(t, file.ParkingSpaces, 3)
	assert.Equal(t, parking.StatusMaintenance, file.ParkingSpaces[2].Status)
	assert.Equal(t, "resurfacing", file.ParkingSpaces[2].Reason)

	require.Len(t, file.Facilities, 2)
	assert.True(t, file.Facilities[0].HourlyRate.Equal(decimal.NewFromInt(200)))
	assert.True(t, file.Facilities[1].HourlyRate.Equal(decimal.RequireFromString("350.5")))
	assert.False(t, file.Facilities[1].Available)

	require.Len(t, file.Devices, 1)
	assert.Equal(t, 22.5, file.Devices[0].Data["temperature"])

	require.NotNil(t, file.Fees.DefaultArea)
	assert.True(t, file.Fees.DefaultArea.Equal(decimal.NewFromInt(25)))
	require.Len(t, file.Fees.Units, 2)
	require.NotNil(t, file.Fees.Units[0].CustomArea)
	assert.True(t, file.Fees.Units[0].CustomArea.Equal(decimal.RequireFromString("100.5")))
	assert.Nil(t, file.Fees.Units[1].CustomArea)
	assert.Len(t, file.Fees.Configs.BaseConfigs, 1)
	assert.Len(t, file.Fees.Configs.UnitConfigs, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := seed.Load("testdata/absent.yaml")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		file, err := seed.Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, file.Staff)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := seed.Parse(strings.NewReader("staf:\n  - name: admin\n"))
		assert.ErrorIs(t, err, seed.ErrFailedToParseSeed)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := seed.Parse(strings.NewReader("staff: [\n"))
		assert.ErrorIs(t, err, seed.ErrFailedToParseSeed)
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	file, err := seed.Load("testdata/seed.yaml")
	require.NoError(t, err)

	result, err := seed.Apply(ctx, s.services, file, nil)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{Staff: 2, Spaces: 3, Facilities: 2, Devices: 1, FeeUnits: 2}, result)

	principal, err := s.staff.Authenticate(ctx, "admin", "0000")
	require.NoError(t, err)
	assert.Equal(t, application.RoleAdmin, principal.Role)

	stats, err := s.parking.Stats(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Maintenance)

	facilities, err := s.facility.State(ctx, principal)
	require.NoError(t, err)
	assert.Len(t, facilities.Facilities, 2)

	devices, err := s.devices.ListDevices(ctx, principal)
	require.NoError(t, err)
	assert.Len(t, devices, 1)

	fees, err := s.fees.State(ctx, principal)
	require.NoError(t, err)
	assert.True(t, fees.DefaultArea.Equal(decimal.NewFromInt(25)))
	assert.True(t, fees.DefaultPricePerPing.Equal(decimal.NewFromInt(120)))
	assert.Len(t, fees.Units, 2)
	assert.Len(t, fees.BaseConfigs, 1)

	unit, err := s.fees.CalculateUnit(ctx, principal, "A-1-2")
	require.NoError(t, err)
	assert.True(t, unit.TotalFee.Equal(decimal.NewFromInt(3000)), unit.TotalFee.String())

	t.Run("second run is skipped", func(t *testing.T) {
		again, err := seed.Apply(ctx, s.services, file, nil)
		require.NoError(t, err)
		assert.Equal(t, seed.Result{Skipped: true}, again)
	})
}

func TestApplyRequiresAdmin(t *testing.T) {
	s := newStack(t)

	_, err := seed.Apply(context.Background(), s.services, seed.File{
		Staff: []seed.StaffEntry{{Name: "desk", Role: "staff", PIN: "2468"}},
	}, nil)
	assert.ErrorIs(t, err, seed.ErrNoAdmin)

	seeded, err := s.staff.HasStaff(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestApplyReportsServiceErrors(t *testing.T) {
	s := newStack(t)

	_, err := seed.Apply(context.Background(), s.services, seed.File{
		Staff: []seed.StaffEntry{
			{Name: "admin", Role: "admin", PIN: "0000"},
			{Name: "bad", Role: "janitor", PIN: "0000"},
		},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `seed staff "bad"`)
}
