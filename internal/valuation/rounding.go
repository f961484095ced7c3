package valuation

import "github.com/shopspring/decimal"

const (
	currencyPlaces   = 0
	multiplierPlaces = 4
	percentPlaces    = 2
)

// roundHalfEven rounds v to the given number of decimal places using
// banker's rounding: an exact tie goes to the even neighbour, so 0.5 -> 0,
// 1.5 -> 2, 2.5 -> 2 and -2.5 -> -2. The tie is judged on the shortest
// decimal representation of v, not on its binary expansion.
func roundHalfEven(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).RoundBank(places).InexactFloat64()
}

// RoundCurrency rounds a monetary amount to whole currency units
func RoundCurrency(v float64) float64 {
	return roundHalfEven(v, currencyPlaces)
}

// RoundOptionalCurrency rounds v when present and keeps nil as nil
func RoundOptionalCurrency(v *float64) *float64 {
	if v == nil {
		return nil
	}
	rounded := RoundCurrency(*v)
	return &rounded
}

// RoundMultiplier rounds a capitalization multiplier for display
func RoundMultiplier(v float64) float64 {
	return roundHalfEven(v, multiplierPlaces)
}

// RoundPercent rounds a percentage to two places
func RoundPercent(v float64) float64 {
	return roundHalfEven(v, percentPlaces)
}

// complementPercent returns 100 - p computed in decimal, so that a rounded
// share and its complement add up to exactly 100.
func complementPercent(p float64) float64 {
	return decimal.NewFromInt(100).Sub(decimal.NewFromFloat(p)).InexactFloat64()
}
