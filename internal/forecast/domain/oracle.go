// Package forecast defines the price and consumption oracle port and the
// parsing of its free-form answers.
package forecast

import (
	"context"
	"time"
)

// FallbackPrice is the price per kWh returned whenever an estimate cannot be
// obtained.
const FallbackPrice = 0.15

// MinHistory is the number of readings an analysis needs.
const MinHistory = 2

// Oracle estimates prices and forecasts consumption.
type Oracle interface {
	// EstimatePrice never fails; it degrades to FallbackPrice.
	EstimatePrice(ctx context.Context, month time.Time) float64
	// Analyze fails with an error wrapping ErrOracle.
	Analyze(ctx context.Context, meter MeterContext) (Analysis, error)
}

// HistoryPoint is one month of history sent to the oracle.
type HistoryPoint struct {
	Date     string  `json:"date"`
	GridKwh  float64 `json:"gridKwh"`
	SolarKwh float64 `json:"solarKwh"`
	Cost     float64 `json:"cost"`
}

// MeterContext is the input of an analysis.
type MeterContext struct {
	Name     string
	Location string
	History  []HistoryPoint
}

// Validate checks that there is enough history to analyze.
func (m MeterContext) Validate() error {
	if len(m.History) < MinHistory {
		return ErrInsufficientHistory
	}
	return nil
}

// Prediction is a forecast for one future month.
type Prediction struct {
	Month string  `json:"month"`
	Kwh   float64 `json:"kwh"`
	Cost  float64 `json:"cost"`
}

// Analysis is the oracle's forecast and advice.
type Analysis struct {
	Predictions      []Prediction `json:"predictions"`
	Advice           string       `json:"advice"`
	SavingsPotential string       `json:"savingsPotential"`
}

// MonthLabel renders a month as "March 2024".
func MonthLabel(t time.Time) string {
	return t.UTC().Format("January 2006")
}
