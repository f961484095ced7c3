package models

import "fmt"

// DefaultCPIBaseYear is the reference year (index = 100) of the published series
const DefaultCPIBaseYear = 2020

// CPIPeriod identifies one monthly CPI publication
type CPIPeriod struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (p CPIPeriod) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// CPIPoint is one published consumer price index reading
type CPIPoint struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	IndexValue float64 `json:"index_value"`
	BaseYear   int     `json:"base_year"`
}

// Period returns the (year, month) key of the reading
func (p CPIPoint) Period() CPIPeriod {
	return CPIPeriod{Year: p.Year, Month: p.Month}
}
