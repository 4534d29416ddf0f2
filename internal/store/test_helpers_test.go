package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sensorfor/downloader/internal/sensor"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedDevice stores a device or fails the test.
func seedDevice(t *testing.T, s *Store, id, alias string) {
	t.Helper()
	if err := s.UpsertDevice(context.Background(), sensor.Device{ID: id, Alias: alias}); err != nil {
		t.Fatalf("UpsertDevice() failed: %v", err)
	}
}

// createTestMeasurement builds a measurement at 2024-03-15 14:<minute>:00.
func createTestMeasurement(deviceID string, minute int, fields ...sensor.Field) sensor.Measurement {
	return sensor.Measurement{
		DeviceID:  deviceID,
		Timestamp: time.Date(2024, 3, 15, 14, minute, 0, 0, time.UTC),
		RawLine:   "raw",
		Fields:    fields,
	}
}
