package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ertragswert/server/internal/models"
)

func TestDefaultCostPolicies(t *testing.T) {
	policies := DefaultCostPolicies()
	assert.Len(t, policies, 2)
	assert.Contains(t, policies, models.PropertyTypeResidential)
	assert.Contains(t, policies, models.PropertyTypeCommercial)
}

func TestResidentialCosts(t *testing.T) {
	indexFactor := 120.5 / DefaultCPIBase
	costs := ResidentialCosts(sampleResidentialInput(), 24000, indexFactor)

	// 270 * 1.42604 = 385.03 per unit; 9 * 1.42604 = 12.83 -> 12.8 per m²
	assert.Equal(t, 1155.0, costs.Administration)
	assert.Equal(t, 1920.0, costs.Maintenance)
	assert.Equal(t, 480.0, costs.RiskOfRentLoss)
	assert.Equal(t, 3555.0, costs.Total)
	assert.Equal(t, 2.0, costs.RiskPercentage)
}

func TestResidentialCosts_MaintenanceRateRoundedToOneDecimal(t *testing.T) {
	input := sampleResidentialInput()
	input.LivingArea = 1000

	// 9 * 1.3 = 11.7 exactly; 9 * 1.31 = 11.79 -> 11.8
	assert.Equal(t, 11700.0, ResidentialCosts(input, 24000, 1.3).Maintenance)
	assert.Equal(t, 11800.0, ResidentialCosts(input, 24000, 1.31).Maintenance)
	// 9 * 1.305 = 11.745 -> 11.7, not 11.745 * 1000
	assert.Equal(t, 11700.0, ResidentialCosts(input, 24000, 1.305).Maintenance)
}

func TestResidentialCosts_MaintenanceScalesWithArea(t *testing.T) {
	small := sampleResidentialInput()
	small.LivingArea = 50
	large := sampleResidentialInput()
	large.LivingArea = 200

	indexFactor := 120.5 / DefaultCPIBase
	assert.Greater(t,
		ResidentialCosts(large, 24000, indexFactor).Maintenance,
		ResidentialCosts(small, 24000, indexFactor).Maintenance,
	)
}

func TestCommercialCosts(t *testing.T) {
	indexFactor := 120.5 / DefaultCPIBase

	tests := []struct {
		name          string
		grossIncome   float64
		expectedAdmin float64
		expectedRisk  float64
	}{
		{"scenario income", 60000, 1800, 2400},
		{"larger income", 100000, 3000, 4000},
		{"odd income", 12345, 370, 494},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			costs := CommercialCosts(sampleCommercialInput(), tt.grossIncome, indexFactor)

			assert.Equal(t, tt.expectedAdmin, costs.Administration)
			assert.Equal(t, tt.expectedRisk, costs.RiskOfRentLoss)
			assert.Equal(t, 3840.0, costs.Maintenance)
			assert.Equal(t, costs.Administration+costs.Maintenance+costs.RiskOfRentLoss, costs.Total)
		})
	}
}

func TestCommercialCosts_RiskPercentageAlwaysPopulated(t *testing.T) {
	for _, gross := range []float64{12000, 60000, 100000, 250000} {
		costs := CommercialCosts(sampleCommercialInput(), gross, 1.4)
		assert.Equal(t, 4.0, costs.RiskPercentage, "gross income %v", gross)
	}
}

func TestCommercialCosts_IgnoresResidentialUnits(t *testing.T) {
	input := sampleCommercialInput()
	withUnits := input
	withUnits.ResidentialUnits = intPtr(10)

	assert.Equal(t,
		CommercialCosts(input, 60000, 1.4),
		CommercialCosts(withUnits, 60000, 1.4),
	)
}
