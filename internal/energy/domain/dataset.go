package energy

import "context"

// Dataset is the full working set of the tracker.
type Dataset struct {
	Meters      []Meter      `json:"meters"`
	Readings    []Reading    `json:"readings"`
	SubMeters   []SubMeter   `json:"subMeters"`
	SubReadings []SubReading `json:"subReadings"`
}

// Clone returns a copy whose slices do not alias d.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Meters:      append([]Meter{}, d.Meters...),
		Readings:    append([]Reading{}, d.Readings...),
		SubMeters:   append([]SubMeter{}, d.SubMeters...),
		SubReadings: append([]SubReading{}, d.SubReadings...),
	}
}

// Store persists the four collections. Reads never fail: unreadable or
// corrupt data comes back as an empty collection. Saves replace the whole
// collection.
type Store interface {
	Meters(ctx context.Context) []Meter
	SaveMeters(ctx context.Context, meters []Meter) error
	Readings(ctx context.Context) []Reading
	SaveReadings(ctx context.Context, readings []Reading) error
	SubMeters(ctx context.Context) []SubMeter
	SaveSubMeters(ctx context.Context, subMeters []SubMeter) error
	SubReadings(ctx context.Context) []SubReading
	SaveSubReadings(ctx context.Context, subReadings []SubReading) error
	Clear(ctx context.Context) error
}

// LoadDataset reads every collection from the store.
func LoadDataset(ctx context.Context, store Store) Dataset {
	return Dataset{
		Meters:      store.Meters(ctx),
		Readings:    store.Readings(ctx),
		SubMeters:   store.SubMeters(ctx),
		SubReadings: store.SubReadings(ctx),
	}
}
