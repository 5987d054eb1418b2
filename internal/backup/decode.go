package backup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/normalize"
)

// Payload is a decoded backup. The Has flags record which collections were
// present as arrays; only those are written on restore.
type Payload struct {
	Dataset        energy.Dataset
	HasMeters      bool
	HasReadings    bool
	HasSubMeters   bool
	HasSubReadings bool
}

// Collections returns the number of collections the payload carries.
func (p Payload) Collections() int {
	n := 0
	for _, has := range []bool{p.HasMeters, p.HasReadings, p.HasSubMeters, p.HasSubReadings} {
		if has {
			n++
		}
	}
	return n
}

// collection keys in lookup order: English first, then the Spanish alias.
var (
	meterKeys      = []string{"meters", "contadores"}
	readingKeys    = []string{"readings", "lecturas"}
	subMeterKeys   = []string{"subMeters", "subContadores"}
	subReadingKeys = []string{"subReadings", "subLecturas"}
	collectionKeys = [][]string{meterKeys, readingKeys, subMeterKeys, subReadingKeys}
)

const unnamedMeter = "Sin Nombre"

// Decode parses backup text. The dataset source is the "data" object when
// present, otherwise the root object itself. A root array is a legacy export
// and decodes to an empty payload.
func Decode(text string, now time.Time) (Payload, error) {
	var root any
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if _, isArray := root.([]any); isArray {
		return Payload{}, nil
	}
	source, ok := root.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("%w: root is not an object", ErrFormat)
	}
	if data, ok := source["data"].(map[string]any); ok {
		source = data
	}
	if !recognizable(source) {
		return Payload{}, fmt.Errorf("%w: no meters, readings, sub-meters or sub-readings found", ErrFormat)
	}

	var p Payload
	if raw, ok := lookupArray(source, meterKeys); ok {
		p.HasMeters = true
		p.Dataset.Meters = make([]energy.Meter, 0, len(raw))
		for _, item := range raw {
			p.Dataset.Meters = append(p.Dataset.Meters, decodeMeter(asObject(item), now))
		}
	}
	if raw, ok := lookupArray(source, readingKeys); ok {
		p.HasReadings = true
		p.Dataset.Readings = make([]energy.Reading, 0, len(raw))
		for _, item := range raw {
			p.Dataset.Readings = append(p.Dataset.Readings, decodeReading(asObject(item), now))
		}
	}
	if raw, ok := lookupArray(source, subMeterKeys); ok {
		var subMeters []energy.SubMeter
		if err := reshape(raw, &subMeters); err != nil {
			return Payload{}, fmt.Errorf("%w: sub-meters: %v", ErrFormat, err)
		}
		p.HasSubMeters = true
		p.Dataset.SubMeters = subMeters
	}
	if raw, ok := lookupArray(source, subReadingKeys); ok {
		var subReadings []energy.SubReading
		if err := reshape(raw, &subReadings); err != nil {
			return Payload{}, fmt.Errorf("%w: sub-readings: %v", ErrFormat, err)
		}
		p.HasSubReadings = true
		p.Dataset.SubReadings = subReadings
	}
	return p, nil
}

func recognizable(source map[string]any) bool {
	for _, keys := range collectionKeys {
		if _, ok := lookup(source, keys); ok {
			return true
		}
	}
	return false
}

// lookup returns the first key of keys present with a non-null value.
func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// lookupArray is lookup restricted to array values. A collection that is
// present but not an array is ignored.
func lookupArray(obj map[string]any, keys []string) ([]any, bool) {
	v, ok := lookup(obj, keys)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

func asObject(v any) map[string]any {
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

func reshape(raw []any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func decodeMeter(obj map[string]any, now time.Time) energy.Meter {
	m := energy.Meter{
		ID:        stringField(obj, "id"),
		Name:      unnamedMeter,
		CreatedAt: energy.EpochMillis(now),
	}
	if v, ok := lookup(obj, []string{"name", "nombre"}); ok {
		m.Name = normalize.Text(v)
	}
	if v, ok := lookup(obj, []string{"location", "cups"}); ok {
		m.Location = normalize.Text(v)
	}
	if v, ok := obj["createdAt"]; ok && v != nil {
		if ms, ok := timestamp(v); ok {
			m.CreatedAt = ms
		}
	}
	return m
}

func decodeReading(obj map[string]any, now time.Time) energy.Reading {
	r := energy.Reading{
		ID:      stringField(obj, "id"),
		MeterID: normalize.Text(first(obj, "meterId", "contadorId")),
		Notes:   normalize.Text(first(obj, "notes")),
		Kwh:     normalize.Float(first(obj, "kwh", "consumoRed")),
		Cost:    normalize.Float(first(obj, "cost", "coste")),
	}
	r.Date = normalize.Month(first(obj, "date", "fecha"), now)
	if v, ok := lookup(obj, []string{"solarKwh", "produccionSolar"}); ok {
		r.SolarKwh = energy.Float(normalize.Float(v))
	}
	return r
}

func first(obj map[string]any, keys ...string) any {
	v, _ := lookup(obj, keys)
	return v
}

func stringField(obj map[string]any, key string) string {
	return normalize.Text(obj[key])
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

// timestamp coerces a createdAt value to epoch milliseconds.
func timestamp(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return energy.EpochMillis(t), true
			}
		}
	}
	return 0, false
}
