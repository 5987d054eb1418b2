// Package stats computes derived per-reading values and aggregates over
// readings already filtered to one meter and a date range.
package stats

import (
	"github.com/samber/lo"

	energy "ecotrack/internal/energy/domain"
)

// FallbackPricePerKwh is used when a set has no grid consumption to derive a
// rate from.
const FallbackPricePerKwh = 0.15

// Point is one month of a consumption series.
type Point struct {
	Date     string  `json:"date"`
	Kwh      float64 `json:"kwh"`
	SolarKwh float64 `json:"solarKwh"`
	Cost     float64 `json:"cost"`
}

// FromReadings converts readings to points; unset solar becomes 0.
func FromReadings(readings []energy.Reading) []Point {
	return lo.Map(readings, func(r energy.Reading, _ int) Point {
		return Point{Date: r.Date, Kwh: r.Kwh, SolarKwh: r.Solar(), Cost: r.Cost}
	})
}

// FromSubReadings converts sub-readings to points. Sub-meters carry no solar
// and their cost is the calculated cost.
func FromSubReadings(readings []energy.SubReading) []Point {
	return lo.Map(readings, func(r energy.SubReading, _ int) Point {
		return Point{Date: r.Date, Kwh: r.Kwh, Cost: r.CalculatedCost}
	})
}

// Derived holds per-record values.
type Derived struct {
	RealConsumption float64 `json:"realConsumption"`
	SavingsPercent  float64 `json:"savingsPercent"`
	PricePerKwh     float64 `json:"pricePerKwh"`
	TheoreticalCost float64 `json:"theoreticalCost"`
}

// Derive computes the derived values of p. The price is always relative to
// billed grid kWh, never to real consumption.
func Derive(p Point) Derived {
	total := p.Kwh + p.SolarKwh
	d := Derived{RealConsumption: total}
	if total > 0 {
		d.SavingsPercent = p.SolarKwh / total * 100
	}
	if p.Kwh > 0 {
		d.PricePerKwh = p.Cost / p.Kwh
	}
	d.TheoreticalCost = total * d.PricePerKwh
	return d
}

// DeriveReading is Derive for a stored reading.
func DeriveReading(r energy.Reading) Derived {
	return Derive(Point{Date: r.Date, Kwh: r.Kwh, SolarKwh: r.Solar(), Cost: r.Cost})
}

// Summary aggregates a filtered set of points.
type Summary struct {
	Count            int     `json:"count"`
	TotalKwh         float64 `json:"totalKwh"`
	TotalCost        float64 `json:"totalCost"`
	AvgCost          float64 `json:"avgCost"`
	TotalSolar       float64 `json:"totalSolar"`
	AvgPricePerKwh   float64 `json:"avgPricePerKwh"`
	EstimatedSavings float64 `json:"estimatedSavings"`
}

// Summarize aggregates points.
func Summarize(points []Point) Summary {
	s := Summary{
		Count:      len(points),
		TotalKwh:   lo.SumBy(points, func(p Point) float64 { return p.Kwh }),
		TotalCost:  lo.SumBy(points, func(p Point) float64 { return p.Cost }),
		TotalSolar: lo.SumBy(points, func(p Point) float64 { return p.SolarKwh }),
	}
	if s.Count > 0 {
		s.AvgCost = s.TotalCost / float64(s.Count)
	}
	s.AvgPricePerKwh = FallbackPricePerKwh
	if s.TotalKwh > 0 {
		s.AvgPricePerKwh = s.TotalCost / s.TotalKwh
	}
	s.EstimatedSavings = s.TotalSolar * s.AvgPricePerKwh
	return s
}
