// Package backup encodes the full tracker dataset as a versioned JSON envelope
// and restores it, accepting legacy and Spanish-keyed payloads.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	energy "ecotrack/internal/energy/domain"
)

// Version is the envelope version written by Encode.
const Version = 1

type envelope struct {
	Version   int            `json:"version"`
	Timestamp int64          `json:"timestamp"`
	Data      energy.Dataset `json:"data"`
}

// Encode renders ds as a pretty-printed envelope stamped with now.
func Encode(ds energy.Dataset, now time.Time) (string, error) {
	env := envelope{
		Version:   Version,
		Timestamp: energy.EpochMillis(now),
		Data:      nonNil(ds),
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return "", fmt.Errorf("backup: encode: %w", err)
	}
	return buf.String(), nil
}

// FileName is the conventional download name for a backup taken at now.
func FileName(now time.Time) string {
	return "ecotrack-backup-" + now.UTC().Format("2006-01-02") + ".json"
}

func nonNil(ds energy.Dataset) energy.Dataset {
	if ds.Meters == nil {
		ds.Meters = []energy.Meter{}
	}
	if ds.Readings == nil {
		ds.Readings = []energy.Reading{}
	}
	if ds.SubMeters == nil {
		ds.SubMeters = []energy.SubMeter{}
	}
	if ds.SubReadings == nil {
		ds.SubReadings = []energy.SubReading{}
	}
	return ds
}
