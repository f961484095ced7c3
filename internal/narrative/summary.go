package narrative

import "ertragswert/server/internal/models"

// Summary is the flattened view of a valuation handed to the model
type Summary struct {
	PropertyType          models.PropertyType `json:"property_type"`
	PurchaseDate          string              `json:"purchase_date"`
	ActualPurchasePrice   *float64            `json:"actual_purchase_price"`
	TheoreticalTotalValue float64             `json:"theoretical_total_value"`
	BuildingSharePercent  float64             `json:"building_share_percent"`
	LandSharePercent      float64             `json:"land_share_percent"`
	AdminCosts            float64             `json:"admin_costs"`
	MaintenanceCosts      float64             `json:"maintenance_costs"`
	RiskPercentage        float64             `json:"risk_percentage"`
	RiskAmount            float64             `json:"risk_amount"`
	IndexFactor           float64             `json:"index_factor"`
	CPIValue              float64             `json:"cpi_value"`
	CPIBase2001           float64             `json:"cpi_base_2001"`
}

// BuildSummary projects a valuation result onto the fields the prompt uses
func BuildSummary(result *models.ValuationResult) Summary {
	return Summary{
		PropertyType:          result.Input.PropertyType,
		PurchaseDate:          result.Input.PurchaseDate.String(),
		ActualPurchasePrice:   result.Input.ActualPurchasePrice,
		TheoreticalTotalValue: result.TheoreticalTotalValue,
		BuildingSharePercent:  result.BuildingSharePercent,
		LandSharePercent:      result.LandSharePercent,
		AdminCosts:            result.ManagementCosts.Administration,
		MaintenanceCosts:      result.ManagementCosts.Maintenance,
		RiskPercentage:        result.ManagementCosts.RiskPercentage,
		RiskAmount:            result.ManagementCosts.RiskOfRentLoss,
		IndexFactor:           result.IndexFactor,
		CPIValue:              result.CPIUsed.IndexValue,
		CPIBase2001:           result.CPIBase2001,
	}
}
