// Package valuation implements the income capitalization method
// (Ertragswertverfahren): land value plus the capitalized building share of
// the net income, with management costs indexed to the October 2001 CPI.
package valuation

import (
	"fmt"
	"math"

	"ertragswert/server/internal/models"
)

// DefaultCPIBase is the CPI of October 2001 on the 2020 = 100 series
const DefaultCPIBase = 84.5

const monthsPerYear = 12

// Engine computes valuations. It holds no mutable state after
// construction and is safe for concurrent use.
type Engine struct {
	cpiBase  float64
	policies map[models.PropertyType]CostPolicy
}

// NewEngine creates an engine indexing against cpiBase. A non-positive
// base falls back to DefaultCPIBase.
func NewEngine(cpiBase float64) *Engine {
	if cpiBase <= 0 {
		cpiBase = DefaultCPIBase
	}
	return &Engine{
		cpiBase:  cpiBase,
		policies: DefaultCostPolicies(),
	}
}

// CPIBase returns the October 2001 index the engine divides by
func (e *Engine) CPIBase() float64 {
	return e.cpiBase
}

// Calculate values one property against one CPI reading
func (e *Engine) Calculate(input models.PropertyInput, cpi models.CPIPoint) (*models.ValuationResult, error) {
	if err := validateInput(input, cpi); err != nil {
		return nil, err
	}

	policy, ok := e.policies[input.PropertyType]
	if !ok {
		return nil, invalid("property_type", "no cost policy for %q", input.PropertyType)
	}

	landValue := input.LandValuePerSqm * input.PlotArea
	annualGrossIncome := input.MonthlyNetRent * monthsPerYear
	indexFactor := cpi.IndexValue / e.cpiBase

	costs := policy(input, annualGrossIncome, indexFactor)
	annualNetIncome := annualGrossIncome - costs.Total

	landInterest := landValue * (input.PropertyYield / 100)
	buildingNetIncome := annualNetIncome - landInterest

	multiplier := Multiplier(input.PropertyYield, input.RemainingUsefulLife)
	buildingValue := buildingNetIncome * multiplier
	totalValue := buildingValue + landValue

	if err := checkFinite([]namedFigure{
		{"land_value", landValue},
		{"annual_gross_income", annualGrossIncome},
		{"index_factor", indexFactor},
		{"multiplier", multiplier},
		{"theoretical_building_value", buildingValue},
		{"theoretical_total_value", totalValue},
	}); err != nil {
		return nil, err
	}
	if totalValue == 0 {
		return nil, &DomainError{Message: "theoretical total value is zero, shares cannot be allocated"}
	}

	buildingShare := buildingValue / totalValue * 100
	landShare := landValue / totalValue * 100
	buildingShareRounded := RoundPercent(buildingShare)

	result := &models.ValuationResult{
		Input:       input,
		CPIUsed:     cpi,
		CPIBase2001: e.cpiBase,
		IndexFactor: indexFactor,

		AnnualGrossIncome: RoundCurrency(annualGrossIncome),
		LandValue:         RoundCurrency(landValue),
		ManagementCosts:   costs,
		AnnualNetIncome:   RoundCurrency(annualNetIncome),
		LandInterest:      RoundCurrency(landInterest),
		BuildingNetIncome: RoundCurrency(buildingNetIncome),
		Multiplier:        RoundMultiplier(multiplier),

		TheoreticalBuildingValue: RoundCurrency(buildingValue),
		TheoreticalTotalValue:    RoundCurrency(totalValue),
		BuildingSharePercent:     buildingShareRounded,
		LandSharePercent:         complementPercent(buildingShareRounded),
	}

	if price := input.ActualPurchasePrice; price != nil {
		actualBuilding := *price * buildingShare / 100
		actualLand := *price * landShare / 100
		result.ActualBuildingValue = RoundOptionalCurrency(&actualBuilding)
		result.ActualLandValue = RoundOptionalCurrency(&actualLand)
	}

	return result, nil
}

// Multiplier is the present value annuity factor (Barwertfaktor) for a
// yield in percent over the given number of years. A zero yield
// degenerates to the number of years.
func Multiplier(yieldPercent, years float64) float64 {
	i := yieldPercent / 100
	if i == 0 {
		return years
	}
	// 1 - (1+i)^-n, evaluated without cancellation for small i
	return -math.Expm1(-years*math.Log1p(i)) / i
}

func validateInput(input models.PropertyInput, cpi models.CPIPoint) error {
	if !input.PropertyType.IsValid() {
		return invalid("property_type", "unknown property type %q", input.PropertyType)
	}

	positive := []struct {
		field string
		value float64
	}{
		{"monthly_net_rent", input.MonthlyNetRent},
		{"living_area", input.LivingArea},
		{"land_value_per_sqm", input.LandValuePerSqm},
		{"plot_area", input.PlotArea},
		{"remaining_useful_life", input.RemainingUsefulLife},
	}
	for _, p := range positive {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return invalid(p.field, "must be a positive number, got %v", p.value)
		}
	}

	if math.IsNaN(input.PropertyYield) || input.PropertyYield < 0 || input.PropertyYield > 100 {
		return invalid("property_yield", "must be between 0 and 100, got %v", input.PropertyYield)
	}
	if input.ResidentialUnits != nil && *input.ResidentialUnits < 0 {
		return invalid("residential_units", "must not be negative, got %d", *input.ResidentialUnits)
	}
	if input.ParkingUnits < 0 {
		return invalid("parking_units", "must not be negative, got %d", input.ParkingUnits)
	}
	if price := input.ActualPurchasePrice; price != nil && (math.IsNaN(*price) || math.IsInf(*price, 0) || *price <= 0) {
		return invalid("actual_purchase_price", "must be a positive number, got %v", *price)
	}
	if math.IsNaN(cpi.IndexValue) || math.IsInf(cpi.IndexValue, 0) || cpi.IndexValue <= 0 {
		return invalid("cpi.index_value", "must be a positive number, got %v", cpi.IndexValue)
	}
	return nil
}

type namedFigure struct {
	name  string
	value float64
}

// checkFinite reports the first non-finite figure, in the order given
func checkFinite(figures []namedFigure) error {
	for _, f := range figures {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &DomainError{Message: fmt.Sprintf("%s is not a finite number", f.name)}
		}
	}
	return nil
}
