package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	energy "ecotrack/internal/energy/domain"
)

// Restore decodes text and, only if the whole payload is valid, replaces each
// collection it carries. Collections absent from the payload are left as they
// are; present ones are overwritten, never merged.
func Restore(ctx context.Context, store energy.Store, text string, now time.Time) (Payload, error) {
	if store == nil {
		return Payload{}, errors.New("backup: nil store")
	}
	payload, err := Decode(text, now)
	if err != nil {
		return Payload{}, err
	}
	if payload.HasMeters {
		if err := store.SaveMeters(ctx, payload.Dataset.Meters); err != nil {
			return payload, fmt.Errorf("backup: save meters: %w", err)
		}
	}
	if payload.HasReadings {
		if err := store.SaveReadings(ctx, payload.Dataset.Readings); err != nil {
			return payload, fmt.Errorf("backup: save readings: %w", err)
		}
	}
	if payload.HasSubMeters {
		if err := store.SaveSubMeters(ctx, payload.Dataset.SubMeters); err != nil {
			return payload, fmt.Errorf("backup: save sub-meters: %w", err)
		}
	}
	if payload.HasSubReadings {
		if err := store.SaveSubReadings(ctx, payload.Dataset.SubReadings); err != nil {
			return payload, fmt.Errorf("backup: save sub-readings: %w", err)
		}
	}
	return payload, nil
}
