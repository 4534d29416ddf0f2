package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sensorfor/downloader/internal/sensor"
)

// RetiredAliasPrefix marks the alias of a stored device whose configured
// alias was taken over by another device.
const RetiredAliasPrefix = "retired:"

// UpsertDevice records a configured device under its configured alias.
//
// A device whose alias was edited in the configuration is renamed. If
// another device_id still holds the alias, that retired device gives it up
// and is renamed to "retired:<device_id>". Measurements reference device_id,
// so they follow a device through renames.
func (s *Store) UpsertDevice(ctx context.Context, d sensor.Device) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert device: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		UPDATE devices SET alias = ? || device_id
		WHERE alias = ? AND device_id <> ?
	`, RetiredAliasPrefix, d.Alias, d.ID)
	if err != nil {
		return fmt.Errorf("upsert device: release alias %q: %w", d.Alias, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO devices (device_id, alias)
		VALUES (?, ?)
		ON CONFLICT(device_id) DO UPDATE SET alias = excluded.alias
		WHERE devices.alias <> excluded.alias
	`, d.ID, d.Alias)
	if err != nil {
		return fmt.Errorf("upsert device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert device: commit: %w", err)
	}
	return nil
}

// IngestMeasurement atomically writes a measurement and all of its fields.
//
// Returns inserted=false and writes nothing when (device_id, timestamp) is
// already stored: measurements are write-once, so a re-fetch never updates
// field values. The insert claims the slot via the unique constraint inside
// the transaction, so a concurrent writer that loses the race also sees
// inserted=false.
//
// Note: The device referenced by DeviceID must exist (foreign key constraint).
func (s *Store) IngestMeasurement(ctx context.Context, m sensor.Measurement) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("ingest measurement: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO measurements (device_id, timestamp, raw_line)
		VALUES (?, ?, ?)
		ON CONFLICT(device_id, timestamp) DO NOTHING
	`,
		m.DeviceID,
		m.Timestamp.Format(sensor.TimestampLayout),
		m.RawLine,
	)
	if err != nil {
		return false, fmt.Errorf("ingest measurement: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ingest measurement: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("ingest measurement: commit (existing): %w", err)
		}
		return false, nil
	}

	measurementID, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("ingest measurement: last insert id: %w", err)
	}

	for i, f := range m.Fields {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO measurement_fields (measurement_id, position, field_name, value)
			VALUES (?, ?, ?, ?)
		`, measurementID, i, f.Name, f.Value)
		if err != nil {
			return false, fmt.Errorf("ingest measurement: insert field %q: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("ingest measurement: commit: %w", err)
	}

	return true, nil
}

// LogRun appends a download log entry and returns its id.
// A zero DownloadedAt is stamped with the current time.
func (s *Store) LogRun(ctx context.Context, e sensor.LogEntry) (int64, error) {
	downloadedAt := e.DownloadedAt
	if downloadedAt.IsZero() {
		downloadedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO download_log
		(run_id, device_alias, downloaded_at, fetched_count, new_count, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.RunID,
		e.DeviceAlias,
		downloadedAt.UTC().Format(sensor.TimestampLayout),
		e.FetchedCount,
		e.NewCount,
		e.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("log run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("log run: last insert id: %w", err)
	}
	return id, nil
}
