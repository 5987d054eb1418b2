package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	forecast "ecotrack/internal/forecast/domain"
)

// FixedOracle returns a fixed price per kWh and cannot analyze. It serves
// offline runs where no API key is configured.
type FixedOracle struct {
	price float64
}

// NewFixedOracle constructs the oracle. A zero price selects forecast.FallbackPrice.
func NewFixedOracle(price float64) (*FixedOracle, error) {
	if price < 0 {
		return nil, errors.New("pricing: negative price")
	}
	if price == 0 {
		price = forecast.FallbackPrice
	}
	return &FixedOracle{price: price}, nil
}

var _ forecast.Oracle = (*FixedOracle)(nil)

// EstimatePrice returns the configured price for any month.
func (o *FixedOracle) EstimatePrice(ctx context.Context, month time.Time) float64 {
	_ = ctx
	_ = month
	return o.price
}

// Analyze always fails: forecasting needs a generative backend.
func (o *FixedOracle) Analyze(ctx context.Context, meter forecast.MeterContext) (forecast.Analysis, error) {
	_ = ctx
	if err := meter.Validate(); err != nil {
		return forecast.Analysis{}, fmt.Errorf("%w: %w", forecast.ErrOracle, err)
	}
	return forecast.Analysis{}, fmt.Errorf("%w: %w", forecast.ErrOracle, forecast.ErrNoCredential)
}
