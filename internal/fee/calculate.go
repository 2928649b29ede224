package fee

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Source names where a unit's fee parameters came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSpecial Source = "special"
	SourceManual  Source = "manual"
)

// SpecialType distinguishes special configs that carry their own price.
type SpecialType string

const (
	SpecialUnitRange SpecialType = "unit_range"
	SpecialCustom    SpecialType = "custom"
)

// BaseConfig is a per-building price; an empty BuildingID applies globally.
type BaseConfig struct {
	ID           string          `json:"id" yaml:"id"`
	BuildingID   string          `json:"buildingId,omitempty" yaml:"building_id"`
	Name         string          `json:"name" yaml:"name"`
	PricePerPing decimal.Decimal `json:"pricePerPing" yaml:"price_per_ping"`
	DefaultSize  decimal.Decimal `json:"defaultSize" yaml:"default_size"`
	Active       bool            `json:"isActive" yaml:"active"`
}

// SpecialConfig overrides pricing for a chosen set of units in one building.
type SpecialConfig struct {
	ID          string           `json:"id" yaml:"id"`
	BuildingID  string           `json:"buildingId" yaml:"building_id"`
	Name        string           `json:"name" yaml:"name"`
	Type        SpecialType      `json:"type" yaml:"type"`
	UnitIDs     []string         `json:"unitIds" yaml:"unit_ids"`
	CustomSize  *decimal.Decimal `json:"customSize,omitempty" yaml:"custom_size"`
	CustomPrice *decimal.Decimal `json:"customPrice,omitempty" yaml:"custom_price"`
}

// UnitConfig is the building-side description of a unit.
type UnitConfig struct {
	ID          string          `json:"id" yaml:"id"`
	BuildingID  string          `json:"buildingId" yaml:"building_id"`
	UnitNumber  string          `json:"unitNumber" yaml:"unit_number"`
	DisplayName string          `json:"displayName" yaml:"display_name"`
	Size        decimal.Decimal `json:"size" yaml:"size"`
}

// Calculation is the fee resolved for one unit.
type Calculation struct {
	UnitID       string          `json:"unitId"`
	Size         decimal.Decimal `json:"size"`
	PricePerPing decimal.Decimal `json:"pricePerPing"`
	MonthlyFee   decimal.Decimal `json:"monthlyFee"`
	Source       Source          `json:"source"`
	ConfigID     string          `json:"configId,omitempty"`
	ConfigName   string          `json:"configName,omitempty"`
}

// Detail is the per-unit row shown in the fee overview.
type Detail struct {
	UnitID          string          `json:"unitId"`
	BuildingID      string          `json:"buildingId"`
	UnitNumber      string          `json:"unitNumber"`
	DisplayName     string          `json:"displayName"`
	Size            decimal.Decimal `json:"size"`
	PricePerPing    decimal.Decimal `json:"pricePerPing"`
	MonthlyFee      decimal.Decimal `json:"monthlyFee"`
	Source          Source          `json:"source"`
	SpecialConfigID string          `json:"specialConfigId,omitempty"`
	CalculatedAt    time.Time       `json:"calculatedAt"`
}

// Stats summarises a set of details.
type Stats struct {
	TotalUnits        int             `json:"totalUnits"`
	TotalMonthlyFee   decimal.Decimal `json:"totalMonthlyFee"`
	AverageMonthlyFee decimal.Decimal `json:"averageMonthlyFee"`
	MaxMonthlyFee     decimal.Decimal `json:"maxMonthlyFee"`
	MinMonthlyFee     decimal.Decimal `json:"minMonthlyFee"`
	SizedUnits        int             `json:"sizedUnits"`
	UnsizedUnits      int             `json:"unsizedUnits"`
}

var fallbackSize = decimal.NewFromInt(30)

// CalculateUnitFee resolves the monthly fee of unit. A custom special config
// listing the unit wins; otherwise the active base config of the unit's
// building is used, then the active global one. Without any base config the
// price is zero.
func CalculateUnitFee(unit UnitConfig, bases []BaseConfig, specials []SpecialConfig) Calculation {
	for _, special := range specials {
		if special.BuildingID != unit.BuildingID || !slices.Contains(special.UnitIDs, unit.ID) {
			continue
		}
		if special.Type != SpecialCustom || special.CustomPrice == nil {
			break
		}
		size := firstPositive(unit.Size, deref(special.CustomSize), fallbackSize)
		return Calculation{
			UnitID:       unit.ID,
			Size:         size,
			PricePerPing: *special.CustomPrice,
			MonthlyFee:   MonthlyFee(size, *special.CustomPrice),
			Source:       SourceSpecial,
			ConfigID:     special.ID,
			ConfigName:   special.Name,
		}
	}

	calc := Calculation{UnitID: unit.ID, Source: SourceDefault, PricePerPing: decimal.Zero}
	var defaultSize decimal.Decimal
	if base, ok := baseFor(unit.BuildingID, bases); ok {
		calc.PricePerPing = base.PricePerPing
		calc.ConfigID = base.ID
		calc.ConfigName = base.Name
		defaultSize = base.DefaultSize
	}
	calc.Size = firstPositive(unit.Size, defaultSize, fallbackSize)
	calc.MonthlyFee = MonthlyFee(calc.Size, calc.PricePerPing)
	return calc
}

// CalculateAll resolves every unit in order.
func CalculateAll(units []UnitConfig, bases []BaseConfig, specials []SpecialConfig, now time.Time) []Detail {
	details := make([]Detail, 0, len(units))
	for _, unit := range units {
		calc := CalculateUnitFee(unit, bases, specials)
		detail := Detail{
			UnitID:       unit.ID,
			BuildingID:   unit.BuildingID,
			UnitNumber:   unit.UnitNumber,
			DisplayName:  unit.DisplayName,
			Size:         calc.Size,
			PricePerPing: calc.PricePerPing,
			MonthlyFee:   calc.MonthlyFee,
			Source:       calc.Source,
			CalculatedAt: now,
		}
		if calc.Source == SourceSpecial {
			detail.SpecialConfigID = calc.ConfigID
		}
		details = append(details, detail)
	}
	return details
}

// ComputeStats aggregates details. The minimum only considers positive fees
// and is zero when there are none.
func ComputeStats(details []Detail) Stats {
	stats := Stats{
		TotalUnits:        len(details),
		TotalMonthlyFee:   decimal.Zero,
		AverageMonthlyFee: decimal.Zero,
		MaxMonthlyFee:     decimal.Zero,
		MinMonthlyFee:     decimal.Zero,
	}
	for _, d := range details {
		stats.TotalMonthlyFee = stats.TotalMonthlyFee.Add(d.MonthlyFee)
		if d.MonthlyFee.GreaterThan(stats.MaxMonthlyFee) {
			stats.MaxMonthlyFee = d.MonthlyFee
		}
		if d.MonthlyFee.IsPositive() && (stats.MinMonthlyFee.IsZero() || d.MonthlyFee.LessThan(stats.MinMonthlyFee)) {
			stats.MinMonthlyFee = d.MonthlyFee
		}
		if d.Size.IsPositive() {
			stats.SizedUnits++
		}
	}
	stats.UnsizedUnits = stats.TotalUnits - stats.SizedUnits
	if stats.TotalUnits > 0 {
		stats.AverageMonthlyFee = stats.TotalMonthlyFee.DivRound(decimal.NewFromInt(int64(stats.TotalUnits)), 2)
	}
	return stats
}

func baseFor(buildingID string, bases []BaseConfig) (BaseConfig, bool) {
	var global *BaseConfig
	for i := range bases {
		base := bases[i]
		if !base.Active {
			continue
		}
		if buildingID != "" && base.BuildingID == buildingID {
			return base, true
		}
		if base.BuildingID == "" && global == nil {
			global = &bases[i]
		}
	}
	if global != nil {
		return *global, true
	}
	return BaseConfig{}, false
}

func firstPositive(values ...decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if v.IsPositive() {
			return v
		}
	}
	return decimal.Zero
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
