package gemini

import (
	"bytes"
	"encoding/json"
	"text/template"

	forecast "ecotrack/internal/forecast/domain"
)

const pricePrompt = `What was the average household price per kWh in Spain (regulated PVPC market) in {{.Month}}?
Answer ONLY with JSON holding a decimal number in euros per kWh.
If the date is in the future, estimate it from recent trends.
Example answer: {"price": 0.15}`

const analysisPrompt = `Act as an expert energy consultant. Analyze the following historical electricity consumption of the meter "{{.Name}}" located at "{{.Location}}".

Historical data: {{.History}}

Your task:
1. Predict GRID consumption (kWh) and cost (euros) for the next 3 months.
2. Give one short, practical saving tip.
3. Estimate the monthly saving potential in euros.

Answer ONLY with valid JSON of this shape:
{
  "predictions": [{"month": "Month name", "kwh": 0, "cost": 0}],
  "advice": "Tip text",
  "savingsPotential": "XX €"
}`

var (
	priceTemplate    = template.Must(template.New("price").Parse(pricePrompt))
	analysisTemplate = template.Must(template.New("analysis").Parse(analysisPrompt))
)

func renderPricePrompt(month string) (string, error) {
	var buf bytes.Buffer
	if err := priceTemplate.Execute(&buf, struct{ Month string }{Month: month}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderAnalysisPrompt(meter forecast.MeterContext) (string, error) {
	history, err := json.Marshal(meter.History)
	if err != nil {
		return "", err
	}
	data := struct {
		Name     string
		Location string
		History  string
	}{
		Name:     meter.Name,
		Location: meter.Location,
		History:  string(history),
	}
	var buf bytes.Buffer
	if err := analysisTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
