package application

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/normalize"
	"ecotrack/internal/energy/stats"
	forecast "ecotrack/internal/forecast/domain"
)

// CostEstimate is a cost computed from an estimated price.
type CostEstimate struct {
	Month       string  `json:"month"`
	Kwh         float64 `json:"kwh"`
	PricePerKwh float64 `json:"pricePerKwh"`
	Cost        float64 `json:"cost"`
}

// EstimateCost prices kwh at the oracle's estimate for the month of date. The
// cost is rounded to cents.
func (t *Tracker) EstimateCost(ctx context.Context, date string, kwh float64) CostEstimate {
	month := normalize.Month(date, t.clock.Now())
	at, err := energy.ParseMonth(month)
	if err != nil {
		at = t.clock.Now()
	}
	price := t.oracle.EstimatePrice(ctx, at)
	return CostEstimate{
		Month:       month,
		Kwh:         kwh,
		PricePerKwh: price,
		Cost:        round2(kwh * price),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Analyze asks the oracle to forecast a meter from its full history.
// Concurrent calls for the same meter share one oracle request.
func (t *Tracker) Analyze(ctx context.Context, meterID string) (forecast.Analysis, error) {
	meter, err := t.Meter(meterID)
	if err != nil {
		return forecast.Analysis{}, err
	}
	points, err := t.Series(meterID, stats.PresetAll())
	if err != nil {
		return forecast.Analysis{}, err
	}
	input := forecast.MeterContext{
		Name:     meter.Name,
		Location: meter.Location,
		History: lo.Map(points, func(p stats.Point, _ int) forecast.HistoryPoint {
			return forecast.HistoryPoint{Date: p.Date, GridKwh: p.Kwh, SolarKwh: p.SolarKwh, Cost: p.Cost}
		}),
	}
	if err := input.Validate(); err != nil {
		return forecast.Analysis{}, fmt.Errorf("%w: %w", forecast.ErrOracle, err)
	}
	v, err, shared := t.analyses.Do(meterID, func() (any, error) {
		return t.oracle.Analyze(ctx, input)
	})
	if shared {
		t.logger.Debug().Str("meter_id", meterID).Msg("analysis shared with in-flight request")
	}
	if err != nil {
		return forecast.Analysis{}, err
	}
	return v.(forecast.Analysis), nil
}
