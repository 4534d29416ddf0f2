package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sensorfor/downloader/internal/sensor"
)

// LastLogEntries returns the n most recent download log entries, newest
// first. Returns an empty slice (not nil) when the log is empty.
func (s *Store) LastLogEntries(ctx context.Context, n int) ([]sensor.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, device_alias, downloaded_at, fetched_count, new_count, status
		FROM download_log
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query download log: %w", err)
	}
	defer rows.Close()

	entries := []sensor.LogEntry{}
	for rows.Next() {
		var e sensor.LogEntry
		var downloadedAt string
		if err := rows.Scan(
			&e.ID, &e.RunID, &e.DeviceAlias, &downloadedAt,
			&e.FetchedCount, &e.NewCount, &e.Status,
		); err != nil {
			return nil, fmt.Errorf("scan download log: %w", err)
		}
		if e.DownloadedAt, err = parseTimestamp(downloadedAt); err != nil {
			return nil, fmt.Errorf("scan download log %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate download log: %w", err)
	}

	return entries, nil
}

// LastMeasurements returns the n most recent measurements of the device,
// newest first, each with its complete field list in stored order. Returns
// an empty slice when the device has no measurements or is not stored.
func (s *Store) LastMeasurements(ctx context.Context, deviceID string, n int) ([]sensor.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH latest AS (
			SELECT id
			FROM measurements
			WHERE device_id = ?
			ORDER BY timestamp DESC
			LIMIT ?
		)
		SELECT m.id, m.device_id, m.timestamp, m.raw_line, f.field_name, f.value
		FROM measurements m
		JOIN latest ON latest.id = m.id
		LEFT JOIN measurement_fields f ON f.measurement_id = m.id
		ORDER BY m.timestamp DESC, f.position ASC
	`, deviceID, n)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	measurements := []sensor.Measurement{}
	for rows.Next() {
		var (
			id        int64
			deviceID  string
			timestamp string
			rawLine   string
			fieldName sql.NullString
			value     any
		)
		if err := rows.Scan(&id, &deviceID, &timestamp, &rawLine, &fieldName, &value); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}

		last := len(measurements) - 1
		if last < 0 || measurements[last].ID != id {
			ts, err := parseTimestamp(timestamp)
			if err != nil {
				return nil, fmt.Errorf("scan measurement %d: %w", id, err)
			}
			measurements = append(measurements, sensor.Measurement{
				ID:        id,
				DeviceID:  deviceID,
				Timestamp: ts,
				RawLine:   rawLine,
				Fields:    []sensor.Field{},
			})
			last++
		}

		if fieldName.Valid {
			measurements[last].Fields = append(measurements[last].Fields, sensor.Field{
				Name:  fieldName.String,
				Value: scanValue(value),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}

	return measurements, nil
}

// CountMeasurements returns the number of stored measurements for a device.
func (s *Store) CountMeasurements(ctx context.Context, deviceID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM measurements WHERE device_id = ?
	`, deviceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count measurements: %w", err)
	}
	return count, nil
}

// parseTimestamp parses a stored timestamp column.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(sensor.TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// scanValue maps a dynamically typed column to the field value types:
// float64, string or nil.
func scanValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return val
	case int64:
		return float64(val)
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
