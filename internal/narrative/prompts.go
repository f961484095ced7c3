package narrative

import (
	"bytes"
	"fmt"
	"text/template"
)

const systemMessage = `You are an experienced German real estate appraiser. You explain valuations made
with the income capitalization method (Ertragswertverfahren) to property buyers in clear,
plain English. You never invent figures: every number you mention comes from the data you
are given. Reply with a JSON object only.`

const analystTemplate = `Analyse the following valuation.

Property type: {{.PropertyType}}
Purchase date: {{.PurchaseDate}}
Actual purchase price: {{if .ActualPurchasePrice}}€{{money (deref .ActualPurchasePrice)}}{{else}}not provided{{end}}
Theoretical total value: €{{money .TheoreticalTotalValue}}
Building share: {{printf "%.2f" .BuildingSharePercent}}%
Land share: {{printf "%.2f" .LandSharePercent}}%

Management costs
- Administration: €{{money .AdminCosts}}
- Maintenance: €{{money .MaintenanceCosts}}
- Risk of rent loss: €{{money .RiskAmount}} ({{printf "%.2f" .RiskPercentage}}% of gross income)

Inflation adjustment
- CPI used: {{printf "%.1f" .CPIValue}}
- CPI October 2001: {{printf "%.1f" .CPIBase2001}}
- Index factor: {{printf "%.4f" .IndexFactor}}

Cover: what the building/land split means for depreciation (AfA), how the property type
changes the cost assumptions, what the index factor does to the cost rates, and how the
theoretical value compares with the actual purchase price when one is given.

Respond as {"analysis": "<several paragraphs>", "key_points": ["<short point>", ...]}.`

var userPrompt = template.Must(template.New("analyst").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"deref": func(v *float64) float64 { return *v },
}).Parse(analystTemplate))

// RenderPrompt fills the analyst template with a summary
func RenderPrompt(summary Summary) (string, error) {
	var buf bytes.Buffer
	if err := userPrompt.Execute(&buf, summary); err != nil {
		return "", fmt.Errorf("failed to render analysis prompt: %w", err)
	}
	return buf.String(), nil
}
