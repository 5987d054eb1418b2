package application

import (
	"context"
	"fmt"

	"ecotrack/internal/backup"
	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/observability/metrics"
)

const (
	opExport  = "export"
	opRestore = "restore"
	opReset   = "reset"
)

// Export renders the working set as a backup document.
func (t *Tracker) Export() (string, error) {
	text, err := backup.Encode(t.Snapshot(), t.clock.Now())
	metrics.IncBackup(opExport, metrics.Result(err))
	return text, err
}

// BackupFileName is the download name for a backup taken now.
func (t *Tracker) BackupFileName() string {
	return backup.FileName(t.clock.Now())
}

// Restore writes the collections carried by text to the store and reloads the
// working set. Invalid documents fail before anything is written.
func (t *Tracker) Restore(ctx context.Context, text string) (backup.Payload, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	payload, err := backup.Restore(ctx, t.store, text, t.clock.Now())
	metrics.IncBackup(opRestore, metrics.Result(err))
	if payload.Collections() > 0 {
		t.data = energy.LoadDataset(ctx, t.store)
	}
	if err != nil {
		t.logger.Warn().Err(err).Msg("backup restore failed")
		return payload, err
	}
	t.logger.Info().
		Int("collections", payload.Collections()).
		Int("meters", len(payload.Dataset.Meters)).
		Int("readings", len(payload.Dataset.Readings)).
		Msg("backup restored")
	return payload, nil
}

// Reset deletes every collection.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Clear(ctx); err != nil {
		metrics.IncBackup(opReset, metrics.ResultError)
		return fmt.Errorf("tracker: reset: %w", err)
	}
	metrics.IncBackup(opReset, metrics.ResultSuccess)
	t.data = energy.Dataset{}
	t.logger.Warn().Msg("all data deleted")
	return nil
}
