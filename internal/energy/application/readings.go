package application

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/normalize"
	"ecotrack/internal/energy/stats"
	"ecotrack/internal/observability/metrics"
)

// ReadingInput is a manually entered reading. An empty date means the
// current month; a nil SolarKwh is stored as 0.
type ReadingInput struct {
	MeterID  string   `json:"meterId"`
	Date     string   `json:"date"`
	Kwh      float64  `json:"kwh"`
	SolarKwh *float64 `json:"solarKwh"`
	Cost     float64  `json:"cost"`
	Notes    string   `json:"notes"`
}

// ImportResult reports a bulk import.
type ImportResult struct {
	Imported  int `json:"imported"`
	Discarded int `json:"discarded"`
}

// AddReading records one month for an existing meter.
func (t *Tracker) AddReading(ctx context.Context, in ReadingInput) (energy.Reading, error) {
	solar := 0.0
	if in.SolarKwh != nil {
		solar = *in.SolarKwh
	}
	reading := energy.Reading{
		ID:       t.newID(),
		MeterID:  in.MeterID,
		Date:     normalize.Month(in.Date, t.clock.Now()),
		Kwh:      in.Kwh,
		SolarKwh: energy.Float(solar),
		Cost:     in.Cost,
		Notes:    strings.TrimSpace(in.Notes),
	}
	if err := reading.Validate(); err != nil {
		return energy.Reading{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.meter(in.MeterID); err != nil {
		return energy.Reading{}, err
	}
	next := append(append([]energy.Reading{}, t.data.Readings...), reading)
	if err := t.saveReadings(ctx, next); err != nil {
		return energy.Reading{}, err
	}
	return reading, nil
}

// ImportReadings normalizes rows for meterID and appends the kept readings.
// Importing never merges with or replaces existing months.
func (t *Tracker) ImportReadings(ctx context.Context, meterID string, rows []normalize.Row) (res ImportResult, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveImport(metrics.Result(err), res.Imported, res.Discarded, time.Since(start))
	}()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.meter(meterID); err != nil {
		return ImportResult{}, err
	}
	batch := t.normalizer.NormalizeBatch(rows, meterID)
	if len(batch.Readings) == 0 {
		return ImportResult{Discarded: batch.Discarded}, energy.ErrNoValidRows
	}
	next := append(append([]energy.Reading{}, t.data.Readings...), batch.Readings...)
	if err := t.saveReadings(ctx, next); err != nil {
		return ImportResult{}, err
	}
	t.logger.Info().
		Str("meter_id", meterID).
		Int("imported", len(batch.Readings)).
		Int("discarded", batch.Discarded).
		Msg("readings imported")
	return ImportResult{Imported: len(batch.Readings), Discarded: batch.Discarded}, nil
}

// ImportFile reads a spreadsheet or CSV upload and imports its rows.
func (t *Tracker) ImportFile(ctx context.Context, meterID, name string, r io.Reader) (ImportResult, error) {
	rows, err := normalize.ReadFile(name, r)
	if err != nil {
		metrics.ObserveImport(metrics.ResultError, 0, 0, 0)
		return ImportResult{}, fmt.Errorf("tracker: read %s: %w", name, err)
	}
	return t.ImportReadings(ctx, meterID, rows)
}

// DeleteReading removes one reading.
func (t *Tracker) DeleteReading(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := lo.Reject(t.data.Readings, func(r energy.Reading, _ int) bool { return r.ID == id })
	if len(next) == len(t.data.Readings) {
		return energy.ErrReadingNotFound
	}
	return t.saveReadings(ctx, next)
}

// ClearHistory removes every reading of a meter and returns how many went.
func (t *Tracker) ClearHistory(ctx context.Context, meterID string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.meter(meterID); err != nil {
		return 0, err
	}
	next, removed := withoutReadings(t.data.Readings, meterID)
	if removed == 0 {
		return 0, nil
	}
	if err := t.saveReadings(ctx, next); err != nil {
		return 0, err
	}
	return removed, nil
}

// AddSubReading records one month for a sub-meter. kwh must be positive; the
// price used is derived from cost.
func (t *Tracker) AddSubReading(ctx context.Context, subMeterID, date string, kwh, cost float64) (energy.SubReading, error) {
	if kwh <= 0 {
		return energy.SubReading{}, energy.ErrInvalidKwh
	}
	reading := energy.NewSubReading(t.newID(), subMeterID, normalize.Month(date, t.clock.Now()), kwh, cost)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.subMeter(subMeterID); err != nil {
		return energy.SubReading{}, err
	}
	next := append(append([]energy.SubReading{}, t.data.SubReadings...), reading)
	if err := t.saveSubReadings(ctx, next); err != nil {
		return energy.SubReading{}, err
	}
	return reading, nil
}

// DeleteSubReading removes one sub-reading.
func (t *Tracker) DeleteSubReading(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := lo.Reject(t.data.SubReadings, func(r energy.SubReading, _ int) bool { return r.ID == id })
	if len(next) == len(t.data.SubReadings) {
		return energy.ErrReadingNotFound
	}
	return t.saveSubReadings(ctx, next)
}

// History returns a meter's readings, newest first.
func (t *Tracker) History(meterID string) []energy.Reading {
	t.mu.RLock()
	out := lo.Filter(t.data.Readings, func(r energy.Reading, _ int) bool { return r.MeterID == meterID })
	t.mu.RUnlock()
	stats.SortReadingsDescending(out)
	return out
}

// SubHistory returns a sub-meter's readings, newest first.
func (t *Tracker) SubHistory(subMeterID string) []energy.SubReading {
	t.mu.RLock()
	out := lo.Filter(t.data.SubReadings, func(r energy.SubReading, _ int) bool { return r.SubMeterID == subMeterID })
	t.mu.RUnlock()
	stats.SortSubReadingsDescending(out)
	return out
}

// Series returns the ascending points of a meter or sub-meter inside r.
// Meter readings without their own solar figure borrow it from the solar
// reference meter by date.
func (t *Tracker) Series(entityID string, r stats.Range) ([]stats.Point, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var points []stats.Point
	switch {
	case t.hasMeter(entityID):
		own := lo.Filter(t.data.Readings, func(x energy.Reading, _ int) bool { return x.MeterID == entityID })
		points = stats.FromReadings(own)
		if ref, refReadings, ok := stats.SolarReference(t.data.Meters, t.data.Readings); ok && ref.ID != entityID {
			points = stats.JoinSolar(points, refReadings)
		}
	case t.hasSubMeter(entityID):
		own := lo.Filter(t.data.SubReadings, func(x energy.SubReading, _ int) bool { return x.SubMeterID == entityID })
		points = stats.FromSubReadings(own)
	default:
		return nil, energy.ErrMeterNotFound
	}
	points = r.FilterPoints(points)
	stats.SortAscending(points)
	return points, nil
}

// Summary aggregates the series of entityID inside r.
func (t *Tracker) Summary(entityID string, r stats.Range) (stats.Summary, error) {
	points, err := t.Series(entityID, r)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(points), nil
}

func (t *Tracker) hasMeter(id string) bool {
	_, err := t.meter(id)
	return err == nil
}

func (t *Tracker) hasSubMeter(id string) bool {
	_, err := t.subMeter(id)
	return err == nil
}
