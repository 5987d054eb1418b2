package normalize

import (
	"github.com/google/uuid"

	energy "ecotrack/internal/energy/domain"
)

// Batch is the result of normalizing a set of rows.
type Batch struct {
	Readings  []energy.Reading
	Discarded int
}

// Total returns the number of rows considered.
func (b Batch) Total() int {
	return len(b.Readings) + b.Discarded
}

// Normalizer maps spreadsheet rows onto readings.
type Normalizer struct {
	matchers Matchers
	clock    energy.Clock
	newID    func() string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMatchers overrides the column candidate lists.
func WithMatchers(matchers Matchers) Option {
	return func(n *Normalizer) {
		if len(matchers) > 0 {
			n.matchers = matchers
		}
	}
}

// WithClock sets the clock used for the current-month date fallback.
func WithClock(clock energy.Clock) Option {
	return func(n *Normalizer) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithIDFunc sets the reading id generator.
func WithIDFunc(fn func() string) Option {
	return func(n *Normalizer) {
		if fn != nil {
			n.newID = fn
		}
	}
}

// NewNormalizer constructs a normalizer with default matchers.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		matchers: DefaultMatchers(),
		clock:    energy.SystemClock{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Matchers returns the active candidate lists.
func (n *Normalizer) Matchers() Matchers {
	return n.matchers
}

// NormalizeRow converts one row into a reading for meterID. It never fails:
// unresolved or malformed fields take their zero value and an unusable date
// becomes the current month.
func (n *Normalizer) NormalizeRow(row Row, meterID string) energy.Reading {
	now := n.clock.Now()

	rawDate, _ := n.matchers.Resolve(row, FieldDate)
	rawKwh, _ := n.matchers.Resolve(row, FieldGridKwh)
	rawSolar, _ := n.matchers.Resolve(row, FieldSolarKwh)
	rawCost, _ := n.matchers.Resolve(row, FieldCost)
	rawNotes, _ := n.matchers.Resolve(row, FieldNotes)

	return energy.Reading{
		ID:       n.newID(),
		MeterID:  meterID,
		Date:     Date(rawDate, now),
		Kwh:      Float(rawKwh),
		SolarKwh: energy.Float(Float(rawSolar)),
		Cost:     Float(rawCost),
		Notes:    Text(rawNotes),
	}
}

// NormalizeBatch normalizes rows and drops the ones carrying no quantity.
func (n *Normalizer) NormalizeBatch(rows []Row, meterID string) Batch {
	batch := Batch{Readings: make([]energy.Reading, 0, len(rows))}
	for _, row := range rows {
		reading := n.NormalizeRow(row, meterID)
		if !Accept(reading) {
			batch.Discarded++
			continue
		}
		batch.Readings = append(batch.Readings, reading)
	}
	return batch
}

// Accept reports whether a normalized reading is kept on import: at least one
// of grid kWh, solar kWh and cost must be nonzero.
func Accept(r energy.Reading) bool {
	return r.Kwh != 0 || r.Solar() != 0 || r.Cost != 0
}
