package forecast

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ecotrack/internal/energy/normalize"
)

var fences = regexp.MustCompile("```json\\n?|\\n?```")

// StripFences removes markdown code fences around a JSON answer.
func StripFences(text string) string {
	return strings.TrimSpace(fences.ReplaceAllString(text, ""))
}

// ParsePrice extracts the price of a {"price": n} answer. A missing, zero or
// negative price yields FallbackPrice.
func ParsePrice(text string) (float64, error) {
	var body map[string]any
	if err := json.Unmarshal([]byte(StripFences(text)), &body); err != nil {
		return FallbackPrice, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	price := normalize.Float(body["price"])
	if price <= 0 {
		return FallbackPrice, nil
	}
	return price, nil
}

type rawAnalysis struct {
	Predictions []struct {
		Month any `json:"month"`
		Kwh   any `json:"kwh"`
		Cost  any `json:"cost"`
	} `json:"predictions"`
	Advice           any `json:"advice"`
	SavingsPotential any `json:"savingsPotential"`
}

// ParseAnalysis decodes an analysis answer. Numbers given as strings and a
// numeric savings potential are tolerated.
func ParseAnalysis(text string) (Analysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(StripFences(text)), &raw); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := Analysis{
		Predictions:      make([]Prediction, 0, len(raw.Predictions)),
		Advice:           normalize.Text(raw.Advice),
		SavingsPotential: normalize.Text(raw.SavingsPotential),
	}
	for _, p := range raw.Predictions {
		out.Predictions = append(out.Predictions, Prediction{
			Month: normalize.Text(p.Month),
			Kwh:   normalize.Float(p.Kwh),
			Cost:  normalize.Float(p.Cost),
		})
	}
	if len(out.Predictions) == 0 && out.Advice == "" {
		return Analysis{}, fmt.Errorf("%w: no predictions or advice", ErrMalformedResponse)
	}
	return out, nil
}
