package valuation

import "ertragswert/server/internal/models"

// Base rates as of October 2001, inflated by the index factor
const (
	adminBaseRatePerUnit      = 270.0
	maintenanceBaseRatePerSqm = 9.00

	residentialRentLossRate = 0.02
	commercialAdminRate     = 0.03
	commercialRentLossRate  = 0.04
)

// CostPolicy computes the management costs of one property type
type CostPolicy func(input models.PropertyInput, annualGrossIncome, indexFactor float64) models.ManagementCosts

// DefaultCostPolicies maps every supported property type to its formula
func DefaultCostPolicies() map[models.PropertyType]CostPolicy {
	return map[models.PropertyType]CostPolicy{
		models.PropertyTypeResidential: ResidentialCosts,
		models.PropertyTypeCommercial:  CommercialCosts,
	}
}

// ResidentialCosts applies the Wohnen formula: administration per
// residential unit, maintenance per m², 2% rent loss risk.
func ResidentialCosts(input models.PropertyInput, annualGrossIncome, indexFactor float64) models.ManagementCosts {
	administration := 0.0
	if units := input.ResidentialUnits; units != nil && *units > 0 {
		adminPerUnit := roundHalfEven(adminBaseRatePerUnit*indexFactor, 2)
		administration = adminPerUnit * float64(*units)
	}

	return newManagementCosts(
		administration,
		maintenance(input.LivingArea, indexFactor),
		annualGrossIncome*residentialRentLossRate,
		annualGrossIncome,
	)
}

// CommercialCosts applies the Gewerbe formula: 3% administration,
// maintenance per m², 4% rent loss risk.
func CommercialCosts(input models.PropertyInput, annualGrossIncome, indexFactor float64) models.ManagementCosts {
	return newManagementCosts(
		annualGrossIncome*commercialAdminRate,
		maintenance(input.LivingArea, indexFactor),
		annualGrossIncome*commercialRentLossRate,
		annualGrossIncome,
	)
}

// maintenance rounds the indexed per-m² rate to one decimal before
// multiplying by the area; the intermediate rounding is part of the formula.
func maintenance(livingArea, indexFactor float64) float64 {
	perSqm := roundHalfEven(maintenanceBaseRatePerSqm*indexFactor, 1)
	return perSqm * livingArea
}

func newManagementCosts(administration, maintenance, riskOfRentLoss, annualGrossIncome float64) models.ManagementCosts {
	admin := RoundCurrency(administration)
	maint := RoundCurrency(maintenance)
	risk := RoundCurrency(riskOfRentLoss)

	riskPercentage := 0.0
	if annualGrossIncome != 0 {
		riskPercentage = RoundPercent(risk / annualGrossIncome * 100)
	}

	return models.ManagementCosts{
		Administration: admin,
		Maintenance:    maint,
		RiskOfRentLoss: risk,
		Total:          admin + maint + risk,
		RiskPercentage: riskPercentage,
	}
}
