// Package query serves the read-only status and measurement views.
package query

import (
	"context"
	"fmt"

	"github.com/sensorfor/downloader/internal/config"
	"github.com/sensorfor/downloader/internal/sensor"
)

// Default row limits of the CLI views.
const (
	DefaultStatusLimit = 20
	DefaultQueryLimit  = 10
)

// Reader is the part of the store the views read from.
type Reader interface {
	LastLogEntries(ctx context.Context, n int) ([]sensor.LogEntry, error)
	LastMeasurements(ctx context.Context, deviceID string, n int) ([]sensor.Measurement, error)
}

// Service answers status and measurement queries. It never writes.
type Service struct {
	cfg    *config.Config
	reader Reader
}

// New creates a Service. Aliases are resolved against cfg's devices.
func New(cfg *config.Config, reader Reader) *Service {
	return &Service{cfg: cfg, reader: reader}
}

// Status returns the n most recent download log entries, newest first.
// A non-positive n uses DefaultStatusLimit.
func (s *Service) Status(ctx context.Context, n int) ([]sensor.LogEntry, error) {
	if n <= 0 {
		n = DefaultStatusLimit
	}
	entries, err := s.reader.LastLogEntries(ctx, n)
	if err != nil {
		return nil, &sensor.StorageError{Op: "read download log", Err: err}
	}
	return entries, nil
}

// Query returns the n most recent measurements of the device configured
// under alias, newest first, each with its full field list. The alias is
// resolved to a device_id through the configuration, so measurements stored
// under an earlier alias are included. A non-positive n uses
// DefaultQueryLimit.
//
// Returns *sensor.UnknownDeviceError when alias is not configured.
func (s *Service) Query(ctx context.Context, alias string, n int) ([]sensor.Measurement, error) {
	device, ok := s.cfg.Device(alias)
	if !ok {
		return nil, &sensor.UnknownDeviceError{Alias: alias}
	}
	if n <= 0 {
		n = DefaultQueryLimit
	}

	measurements, err := s.reader.LastMeasurements(ctx, device.ID, n)
	if err != nil {
		return nil, &sensor.StorageError{
			Op:  fmt.Sprintf("read measurements of %s (%s)", device.Alias, device.ID),
			Err: err,
		}
	}
	return measurements, nil
}
