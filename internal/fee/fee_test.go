package fee_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/civisos/internal/fee"
	"github.com/example/civisos/internal/money"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return money.MustParse(s) }

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestTotalFeeIsExact(t *testing.T) {
	assert.Equal(t, "0.02", fee.TotalFee(dec("0.1"), dec("0.2")).String())
	assert.Equal(t, "8924.4", fee.TotalFee(dec("100.5"), dec("88.8")).String())
}

func TestState_CalculateTotalFee(t *testing.T) {
	state := fee.NewState().
		UpsertUnit(fee.Unit{ID: "u1", UnitID: "A-101"}).
		UpsertUnit(fee.Unit{ID: "u2", UnitID: "A-102", CustomArea: ptr("100.5"), CustomPrice: ptr("88.8")}).
		UpsertUnit(fee.Unit{ID: "u3", UnitID: "A-103", CustomPrice: ptr("0")})

	t.Run("defaults", func(t *testing.T) {
		next, err := state.CalculateTotalFee("u1")
		require.NoError(t, err)
		unit, _ := next.Unit("u1")
		assert.Equal(t, "3000", unit.TotalFee.String())
		assert.Equal(t, "30", unit.Area.String())
		assert.Equal(t, "100", unit.PricePerPing.String())
	})

	t.Run("custom values", func(t *testing.T) {
		next, err := state.CalculateTotalFee("u2")
		require.NoError(t, err)
		unit, _ := next.Unit("u2")
		assert.Equal(t, "8924.4", unit.TotalFee.String())
	})

	t.Run("zero custom price is honoured", func(t *testing.T) {
		next, err := state.CalculateTotalFee("u3")
		require.NoError(t, err)
		unit, _ := next.Unit("u3")
		assert.True(t, unit.TotalFee.IsZero())
	})

	t.Run("unknown unit sets register", func(t *testing.T) {
		next, err := state.CalculateTotalFee("nope")
		assert.ErrorIs(t, err, fee.ErrUnitNotFound)
		assert.NotEmpty(t, next.Error)
		assert.Empty(t, state.Error)
	})

	t.Run("input state is not mutated", func(t *testing.T) {
		_, err := state.CalculateTotalFee("u1")
		require.NoError(t, err)
		unit, _ := state.Unit("u1")
		assert.True(t, unit.TotalFee.IsZero())
	})
}

func TestState_SetDefaults(t *testing.T) {
	state := fee.NewState().SetDefaults(dec("40"), decimal.Zero).UpsertUnit(fee.Unit{ID: "u1"})
	next, err := state.CalculateTotalFee("u1")
	require.NoError(t, err)
	unit, _ := next.Unit("u1")
	assert.Equal(t, "4000", unit.TotalFee.String())
}

func TestState_SetPaymentStatus(t *testing.T) {
	state := fee.NewState().UpsertUnit(fee.Unit{ID: "u1"})

	next, err := state.SetPaymentStatus("u1", fee.PaymentPartial, now)
	require.NoError(t, err)
	unit, _ := next.Unit("u1")
	assert.Equal(t, fee.PaymentPartial, unit.PaymentStatus)
	assert.Nil(t, unit.LastPaymentDate)

	next, err = next.SetPaymentStatus("u1", fee.PaymentPaid, now)
	require.NoError(t, err)
	unit, _ = next.Unit("u1")
	require.NotNil(t, unit.LastPaymentDate)
	assert.Equal(t, now, *unit.LastPaymentDate)

	_, err = next.SetPaymentStatus("u1", "pending", now)
	assert.ErrorIs(t, err, fee.ErrInvalidPaymentStatus)
}

func TestCalculateUnitFee(t *testing.T) {
	bases := []fee.BaseConfig{
		{ID: "global", Name: "Global", PricePerPing: dec("80"), Active: true},
		{ID: "a", BuildingID: "A", Name: "Building A", PricePerPing: dec("99.5"), DefaultSize: dec("25"), Active: true},
		{ID: "b-off", BuildingID: "B", PricePerPing: dec("500"), Active: false},
	}
	specials := []fee.SpecialConfig{
		{ID: "pent", BuildingID: "A", Name: "Penthouse", Type: fee.SpecialCustom, UnitIDs: []string{"A-PH"}, CustomPrice: ptr("150")},
		{ID: "range", BuildingID: "A", Type: fee.SpecialUnitRange, UnitIDs: []string{"A-2"}},
	}

	tests := []struct {
		name     string
		unit     fee.UnitConfig
		wantFee  string
		wantSrc  fee.Source
		wantSize string
	}{
		{"special custom price", fee.UnitConfig{ID: "A-PH", BuildingID: "A", Size: dec("60")}, "9000", fee.SourceSpecial, "60"},
		{"special without price falls back", fee.UnitConfig{ID: "A-2", BuildingID: "A", Size: dec("10")}, "995", fee.SourceDefault, "10"},
		{"building base rounds half away from zero", fee.UnitConfig{ID: "A-1", BuildingID: "A", Size: dec("30.1")}, "2995", fee.SourceDefault, "30.1"},
		{"building default size", fee.UnitConfig{ID: "A-3", BuildingID: "A"}, "2488", fee.SourceDefault, "25"},
		{"inactive building uses global", fee.UnitConfig{ID: "B-1", BuildingID: "B", Size: dec("10")}, "800", fee.SourceDefault, "10"},
		{"fallback size", fee.UnitConfig{ID: "C-1", BuildingID: "C"}, "2400", fee.SourceDefault, "30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := fee.CalculateUnitFee(tt.unit, bases, specials)
			assert.Equal(t, tt.wantFee, calc.MonthlyFee.String())
			assert.Equal(t, tt.wantSrc, calc.Source)
			assert.Equal(t, tt.wantSize, calc.Size.String())
		})
	}

	t.Run("no base config charges nothing", func(t *testing.T) {
		calc := fee.CalculateUnitFee(fee.UnitConfig{ID: "x"}, nil, nil)
		assert.True(t, calc.MonthlyFee.IsZero())
		assert.Equal(t, "30", calc.Size.String())
	})
}

func TestComputeStats(t *testing.T) {
	details := []fee.Detail{
		{MonthlyFee: dec("3000"), Size: dec("30")},
		{MonthlyFee: dec("0"), Size: dec("0")},
		{MonthlyFee: dec("1500"), Size: dec("15")},
	}

	stats := fee.ComputeStats(details)

	assert.Equal(t, 3, stats.TotalUnits)
	assert.Equal(t, "4500", stats.TotalMonthlyFee.String())
	assert.Equal(t, "1500", stats.AverageMonthlyFee.String())
	assert.Equal(t, "3000", stats.MaxMonthlyFee.String())
	assert.Equal(t, "1500", stats.MinMonthlyFee.String())
	assert.Equal(t, 2, stats.SizedUnits)
	assert.Equal(t, 1, stats.UnsizedUnits)

	empty := fee.ComputeStats(nil)
	assert.True(t, empty.AverageMonthlyFee.IsZero())
}

func TestState_Recalculate(t *testing.T) {
	state := fee.NewState()
	state.BaseConfigs = []fee.BaseConfig{{ID: "g", PricePerPing: dec("100"), Active: true}}
	state.UnitConfigs = []fee.UnitConfig{
		{ID: "A-1", BuildingID: "A", UnitNumber: "1", Size: dec("20")},
		{ID: "A-2", BuildingID: "A", UnitNumber: "2", Size: dec("35")},
	}

	next := state.Recalculate(now)

	require.Len(t, next.Details, 2)
	assert.Equal(t, "2000", next.Details[0].MonthlyFee.String())
	assert.Equal(t, now, next.Details[1].CalculatedAt)
	assert.Equal(t, "5500", next.Stats.TotalMonthlyFee.String())
	assert.Empty(t, state.Details)
}
