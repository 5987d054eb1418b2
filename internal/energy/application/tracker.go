package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/normalize"
	forecast "ecotrack/internal/forecast/domain"
)

// Tracker owns the in-memory working set and mirrors every mutation to the
// store. Each collection is replaced in memory only after its save succeeds.
type Tracker struct {
	store      energy.Store
	oracle     forecast.Oracle
	normalizer *normalize.Normalizer
	clock      energy.Clock
	newID      func() string
	logger     zerolog.Logger

	mu   sync.RWMutex
	data energy.Dataset

	analyses singleflight.Group
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithNormalizer sets the spreadsheet row normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(t *Tracker) {
		if n != nil {
			t.normalizer = n
		}
	}
}

// WithClock sets the clock.
func WithClock(clock energy.Clock) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithIDFunc sets the entity id generator.
func WithIDFunc(fn func() string) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker constructs the service. Call Load before use.
func NewTracker(store energy.Store, oracle forecast.Oracle, opts ...Option) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("tracker: nil store")
	}
	if oracle == nil {
		return nil, errors.New("tracker: nil oracle")
	}
	t := &Tracker{
		store:  store,
		oracle: oracle,
		clock:  energy.SystemClock{},
		newID:  uuid.NewString,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.normalizer == nil {
		t.normalizer = normalize.NewNormalizer(normalize.WithClock(t.clock), normalize.WithIDFunc(t.newID))
	}
	return t, nil
}

// Load replaces the working set with the store contents.
func (t *Tracker) Load(ctx context.Context) {
	data := energy.LoadDataset(ctx, t.store)
	t.mu.Lock()
	t.data = data
	t.mu.Unlock()
	t.logger.Info().
		Int("meters", len(data.Meters)).
		Int("readings", len(data.Readings)).
		Int("sub_meters", len(data.SubMeters)).
		Int("sub_readings", len(data.SubReadings)).
		Msg("working set loaded")
}

// Snapshot returns a copy of the working set.
func (t *Tracker) Snapshot() energy.Dataset {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data.Clone()
}

// Meters returns the meters in creation order.
func (t *Tracker) Meters() []energy.Meter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]energy.Meter{}, t.data.Meters...)
}

// Meter returns one meter.
func (t *Tracker) Meter(id string) (energy.Meter, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.meter(id)
}

// SubMeters returns the sub-meters in creation order.
func (t *Tracker) SubMeters() []energy.SubMeter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]energy.SubMeter{}, t.data.SubMeters...)
}

func (t *Tracker) meter(id string) (energy.Meter, error) {
	for _, m := range t.data.Meters {
		if m.ID == id {
			return m, nil
		}
	}
	return energy.Meter{}, energy.ErrMeterNotFound
}

func (t *Tracker) subMeter(id string) (energy.SubMeter, error) {
	for _, m := range t.data.SubMeters {
		if m.ID == id {
			return m, nil
		}
	}
	return energy.SubMeter{}, energy.ErrSubMeterNotFound
}

func (t *Tracker) saveMeters(ctx context.Context, meters []energy.Meter) error {
	if err := t.store.SaveMeters(ctx, meters); err != nil {
		return fmt.Errorf("tracker: save meters: %w", err)
	}
	t.data.Meters = meters
	return nil
}

func (t *Tracker) saveReadings(ctx context.Context, readings []energy.Reading) error {
	if err := t.store.SaveReadings(ctx, readings); err != nil {
		return fmt.Errorf("tracker: save readings: %w", err)
	}
	t.data.Readings = readings
	return nil
}

func (t *Tracker) saveSubMeters(ctx context.Context, subMeters []energy.SubMeter) error {
	if err := t.store.SaveSubMeters(ctx, subMeters); err != nil {
		return fmt.Errorf("tracker: save sub-meters: %w", err)
	}
	t.data.SubMeters = subMeters
	return nil
}

func (t *Tracker) saveSubReadings(ctx context.Context, subReadings []energy.SubReading) error {
	if err := t.store.SaveSubReadings(ctx, subReadings); err != nil {
		return fmt.Errorf("tracker: save sub-readings: %w", err)
	}
	t.data.SubReadings = subReadings
	return nil
}

// AddMeter creates a meter.
func (t *Tracker) AddMeter(ctx context.Context, name, location string) (energy.Meter, error) {
	meter := energy.Meter{
		ID:        t.newID(),
		Name:      strings.TrimSpace(name),
		Location:  strings.TrimSpace(location),
		CreatedAt: energy.EpochMillis(t.clock.Now()),
	}
	if err := meter.Validate(); err != nil {
		return energy.Meter{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	next := append(append([]energy.Meter{}, t.data.Meters...), meter)
	if err := t.saveMeters(ctx, next); err != nil {
		return energy.Meter{}, err
	}
	t.logger.Info().Str("meter_id", meter.ID).Str("name", meter.Name).Msg("meter added")
	return meter, nil
}

// UpdateMeter renames or relocates a meter. Identity and creation time are kept.
func (t *Tracker) UpdateMeter(ctx context.Context, meter energy.Meter) (energy.Meter, error) {
	meter.Name = strings.TrimSpace(meter.Name)
	meter.Location = strings.TrimSpace(meter.Location)
	if err := meter.Validate(); err != nil {
		return energy.Meter{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	next := append([]energy.Meter{}, t.data.Meters...)
	found := false
	for i, m := range next {
		if m.ID == meter.ID {
			meter.CreatedAt = m.CreatedAt
			next[i] = meter
			found = true
			break
		}
	}
	if !found {
		return energy.Meter{}, energy.ErrMeterNotFound
	}
	if err := t.saveMeters(ctx, next); err != nil {
		return energy.Meter{}, err
	}
	return meter, nil
}

// DeleteMeter removes a meter and every reading that references it.
func (t *Tracker) DeleteMeter(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.meter(id); err != nil {
		return err
	}
	meters := make([]energy.Meter, 0, len(t.data.Meters))
	for _, m := range t.data.Meters {
		if m.ID != id {
			meters = append(meters, m)
		}
	}
	readings, removed := withoutReadings(t.data.Readings, id)
	if err := t.saveMeters(ctx, meters); err != nil {
		return err
	}
	if removed > 0 {
		if err := t.saveReadings(ctx, readings); err != nil {
			return err
		}
	}
	t.logger.Info().Str("meter_id", id).Int("readings", removed).Msg("meter deleted")
	return nil
}

func withoutReadings(readings []energy.Reading, meterID string) ([]energy.Reading, int) {
	out := make([]energy.Reading, 0, len(readings))
	for _, r := range readings {
		if r.MeterID != meterID {
			out = append(out, r)
		}
	}
	return out, len(readings) - len(out)
}

// AddSubMeter creates a sub-meter.
func (t *Tracker) AddSubMeter(ctx context.Context, name string) (energy.SubMeter, error) {
	sub := energy.SubMeter{
		ID:        t.newID(),
		Name:      strings.TrimSpace(name),
		CreatedAt: energy.EpochMillis(t.clock.Now()),
	}
	if err := sub.Validate(); err != nil {
		return energy.SubMeter{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	next := append(append([]energy.SubMeter{}, t.data.SubMeters...), sub)
	if err := t.saveSubMeters(ctx, next); err != nil {
		return energy.SubMeter{}, err
	}
	return sub, nil
}

// DeleteSubMeter removes a sub-meter and its sub-readings.
func (t *Tracker) DeleteSubMeter(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.subMeter(id); err != nil {
		return err
	}
	subMeters := make([]energy.SubMeter, 0, len(t.data.SubMeters))
	for _, m := range t.data.SubMeters {
		if m.ID != id {
			subMeters = append(subMeters, m)
		}
	}
	subReadings := make([]energy.SubReading, 0, len(t.data.SubReadings))
	for _, r := range t.data.SubReadings {
		if r.SubMeterID != id {
			subReadings = append(subReadings, r)
		}
	}
	if err := t.saveSubMeters(ctx, subMeters); err != nil {
		return err
	}
	if len(subReadings) != len(t.data.SubReadings) {
		if err := t.saveSubReadings(ctx, subReadings); err != nil {
			return err
		}
	}
	return nil
}
