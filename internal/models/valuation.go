package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PropertyType selects the management cost formula
type PropertyType string

const (
	PropertyTypeResidential PropertyType = "residential"
	PropertyTypeCommercial  PropertyType = "commercial"
)

// IsValid reports whether t is one of the known property types
func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyTypeResidential, PropertyTypeCommercial:
		return true
	default:
		return false
	}
}

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML lets CLI input files carry plain YYYY-MM-DD dates
func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PropertyInput holds everything the valuation needs about one property.
// ResidentialUnits and ActualPurchasePrice are optional; ParkingUnits is
// accepted and carried through but not priced.
type PropertyInput struct {
	PropertyType        PropertyType `json:"property_type" yaml:"property_type" binding:"required,oneof=residential commercial"`
	PurchaseDate        Date         `json:"purchase_date" yaml:"purchase_date"`
	MonthlyNetRent      float64      `json:"monthly_net_rent" yaml:"monthly_net_rent" binding:"required,gt=0"`
	LivingArea          float64      `json:"living_area" yaml:"living_area" binding:"required,gt=0"`
	ResidentialUnits    *int         `json:"residential_units" yaml:"residential_units" binding:"omitempty,gte=0"`
	ParkingUnits        int          `json:"parking_units" yaml:"parking_units" binding:"gte=0"`
	LandValuePerSqm     float64      `json:"land_value_per_sqm" yaml:"land_value_per_sqm" binding:"required,gt=0"`
	PlotArea            float64      `json:"plot_area" yaml:"plot_area" binding:"required,gt=0"`
	RemainingUsefulLife float64      `json:"remaining_useful_life" yaml:"remaining_useful_life" binding:"required,gt=0"`
	PropertyYield       float64      `json:"property_yield" yaml:"property_yield" binding:"required,gt=0,lte=100"`
	ActualPurchasePrice *float64     `json:"actual_purchase_price" yaml:"actual_purchase_price" binding:"omitempty,gt=0"`
}

// ManagementCosts is the itemized Bewirtschaftungskosten deduction.
// Total is always the sum of the three rounded components.
type ManagementCosts struct {
	Administration float64 `json:"administration"`
	Maintenance    float64 `json:"maintenance"`
	RiskOfRentLoss float64 `json:"risk_of_rent_loss"`
	Total          float64 `json:"total"`
	RiskPercentage float64 `json:"risk_percentage"`
}

// ValuationResult is the full, rounded outcome of one valuation
type ValuationResult struct {
	ID string `json:"id,omitempty"`

	Input       PropertyInput `json:"input_data"`
	CPIUsed     CPIPoint      `json:"cpi_used"`
	CPIBase2001 float64       `json:"cpi_base_2001"`
	IndexFactor float64       `json:"index_factor"`

	AnnualGrossIncome float64         `json:"annual_gross_income"`
	LandValue         float64         `json:"land_value"`
	ManagementCosts   ManagementCosts `json:"management_costs"`
	AnnualNetIncome   float64         `json:"annual_net_income"`
	LandInterest      float64         `json:"land_interest"`
	BuildingNetIncome float64         `json:"building_net_income"`
	Multiplier        float64         `json:"multiplier"`

	TheoreticalBuildingValue float64 `json:"theoretical_building_value"`
	TheoreticalTotalValue    float64 `json:"theoretical_total_value"`
	BuildingSharePercent     float64 `json:"building_share_percent"`
	LandSharePercent         float64 `json:"land_share_percent"`

	// Only set when the input carries an actual purchase price
	ActualBuildingValue *float64 `json:"actual_building_value"`
	ActualLandValue     *float64 `json:"actual_land_value"`
}

// AnalysisResponse is the narrative produced for a valuation result
type AnalysisResponse struct {
	Analysis  string   `json:"analysis"`
	KeyPoints []string `json:"key_points"`
}
