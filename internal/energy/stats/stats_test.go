package stats

import (
	"math"
	"testing"
	"time"

	energy "ecotrack/internal/energy/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

func TestDeriveScenario(t *testing.T) {
	d := Derive(Point{Date: "2024-03", Kwh: 120, SolarKwh: 30, Cost: 18.5})
	if d.RealConsumption != 150 {
		t.Fatalf("expected real consumption 150, got %v", d.RealConsumption)
	}
	if !almostEqual(d.SavingsPercent, 20) {
		t.Fatalf("expected savings 20, got %v", d.SavingsPercent)
	}
	if !almostEqual(d.PricePerKwh, 0.15417) {
		t.Fatalf("expected price 0.15417, got %v", d.PricePerKwh)
	}
	if !almostEqual(d.TheoreticalCost, 23.125) {
		t.Fatalf("expected theoretical cost 23.125, got %v", d.TheoreticalCost)
	}
}

func TestDeriveZeroGrid(t *testing.T) {
	d := Derive(Point{Kwh: 0, SolarKwh: 40, Cost: 5})
	if d.PricePerKwh != 0 || d.TheoreticalCost != 0 {
		t.Fatalf("expected zero price and cost, got %+v", d)
	}
	if d.SavingsPercent != 100 {
		t.Fatalf("expected savings 100, got %v", d.SavingsPercent)
	}

	empty := Derive(Point{})
	if empty.SavingsPercent != 0 || math.IsNaN(empty.TheoreticalCost) {
		t.Fatalf("expected zero derived values, got %+v", empty)
	}
}

func TestDeriveTheoreticalCostProperty(t *testing.T) {
	points := []Point{
		{Kwh: 100, SolarKwh: 0, Cost: 20},
		{Kwh: 0, SolarKwh: 10, Cost: 0},
		{Kwh: 50, SolarKwh: 25, Cost: 7.5},
		{Kwh: 3, SolarKwh: 1, Cost: 0},
	}
	for _, p := range points {
		d := Derive(p)
		price := 0.0
		if p.Kwh > 0 {
			price = p.Cost / p.Kwh
		}
		if d.TheoreticalCost != (p.Kwh+p.SolarKwh)*price {
			t.Fatalf("expected theoretical cost %v, got %v", (p.Kwh+p.SolarKwh)*price, d.TheoreticalCost)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Point{
		{Date: "2024-01", Kwh: 100, SolarKwh: 20, Cost: 20},
		{Date: "2024-02", Kwh: 100, SolarKwh: 30, Cost: 30},
	})
	if s.Count != 2 || s.TotalKwh != 200 || s.TotalCost != 50 || s.TotalSolar != 50 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if s.AvgCost != 25 {
		t.Fatalf("expected avg cost 25, got %v", s.AvgCost)
	}
	if s.AvgPricePerKwh != 0.25 {
		t.Fatalf("expected avg price 0.25, got %v", s.AvgPricePerKwh)
	}
	if s.EstimatedSavings != 12.5 {
		t.Fatalf("expected savings 12.5, got %v", s.EstimatedSavings)
	}
}

func TestSummarizeFallbackPrice(t *testing.T) {
	empty := Summarize(nil)
	if empty.AvgPricePerKwh != FallbackPricePerKwh || empty.AvgCost != 0 {
		t.Fatalf("expected fallback price on empty set, got %+v", empty)
	}

	solarOnly := Summarize([]Point{{Date: "2024-01", SolarKwh: 10, Cost: 3}})
	if solarOnly.AvgPricePerKwh != 0.15 {
		t.Fatalf("expected exactly 0.15, got %v", solarOnly.AvgPricePerKwh)
	}
	if !almostEqual(solarOnly.EstimatedSavings, 1.5) {
		t.Fatalf("expected savings 1.5, got %v", solarOnly.EstimatedSavings)
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: "2024-02", End: "2024-04"}
	cases := map[string]bool{
		"2024-01": false,
		"2024-02": true,
		"2024-03": true,
		"2024-04": true,
		"2024-05": false,
		"":        false,
	}
	for date, want := range cases {
		if got := r.Contains(date); got != want {
			t.Fatalf("Contains(%q): expected %v, got %v", date, want, got)
		}
	}
	if !PresetAll().Contains("1999-01") {
		t.Fatalf("expected open range to contain any date")
	}
	if !PresetYear(2025).Contains("2025-01") || !PresetYear(2025).Contains("2025-12") || PresetYear(2025).Contains("2026-01") {
		t.Fatalf("unexpected year preset bounds %+v", PresetYear(2025))
	}
}

func TestPresetLastMonths(t *testing.T) {
	r := PresetLastMonths(time.Date(2025, time.March, 31, 23, 0, 0, 0, time.UTC), 12)
	if r.Start != "2024-03" || r.End != "2025-03" {
		t.Fatalf("expected 2024-03..2025-03, got %+v", r)
	}

	named, ok := Preset("2026", time.Now())
	if !ok || named.Start != "2026-01" {
		t.Fatalf("expected year preset, got %+v %v", named, ok)
	}
	if _, ok := Preset("last-week", time.Now()); ok {
		t.Fatalf("expected unknown preset to fail")
	}
}

func TestSortOrders(t *testing.T) {
	points := []Point{{Date: "2024-03"}, {Date: "bad"}, {Date: "2023-12"}, {Date: "2024-01"}}
	SortAscending(points)
	want := []string{"2023-12", "2024-01", "2024-03", "bad"}
	for i, p := range points {
		if p.Date != want[i] {
			t.Fatalf("ascending[%d]: expected %s, got %s", i, want[i], p.Date)
		}
	}

	readings := []energy.Reading{{Date: "2024-01"}, {Date: ""}, {Date: "2024-03"}, {Date: "2023-12"}}
	SortReadingsDescending(readings)
	wantDesc := []string{"2024-03", "2024-01", "2023-12", ""}
	for i, r := range readings {
		if r.Date != wantDesc[i] {
			t.Fatalf("descending[%d]: expected %q, got %q", i, wantDesc[i], r.Date)
		}
	}
}

func TestSolarReferenceJoin(t *testing.T) {
	meters := []energy.Meter{
		{ID: "m1", Name: "Cocina"},
		{ID: "m2", Name: "Total IPS Planta"},
	}
	readings := []energy.Reading{
		{ID: "r1", MeterID: "m1", Date: "2024-01", Kwh: 50},
		{ID: "r2", MeterID: "m2", Date: "2024-01", Kwh: 300, SolarKwh: energy.Float(80)},
		{ID: "r3", MeterID: "m2", Date: "2024-02", Kwh: 280, SolarKwh: energy.Float(90)},
		{ID: "r4", MeterID: "m1", Date: "2024-02", Kwh: 40, SolarKwh: energy.Float(5)},
	}

	meter, ref, ok := SolarReference(meters, readings)
	if !ok || meter.ID != "m2" || len(ref) != 2 {
		t.Fatalf("expected reference meter m2 with 2 readings, got %v %d %v", meter.ID, len(ref), ok)
	}

	own := FromReadings([]energy.Reading{readings[0], readings[3]})
	joined := JoinSolar(own, ref)
	if joined[0].SolarKwh != 80 {
		t.Fatalf("expected joined solar 80, got %v", joined[0].SolarKwh)
	}
	if joined[1].SolarKwh != 5 {
		t.Fatalf("expected own solar 5 kept, got %v", joined[1].SolarKwh)
	}
	if own[0].SolarKwh != 0 {
		t.Fatalf("expected input points untouched")
	}

	if IsSolarReference("Cocina") || !IsSolarReference("Contador GENERAL") {
		t.Fatalf("unexpected reference detection")
	}
}
