package runner

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/sensorfor/downloader/internal/config"
	"github.com/sensorfor/downloader/internal/metrics"
	"github.com/sensorfor/downloader/internal/sensor"
)

// Fetcher retrieves raw records for one device.
type Fetcher interface {
	Fetch(ctx context.Context, device sensor.Device, lines, zoom int) ([]sensor.RawRecord, error)
}

// Store persists devices, measurements and the download log.
type Store interface {
	UpsertDevice(ctx context.Context, d sensor.Device) error
	IngestMeasurement(ctx context.Context, m sensor.Measurement) (bool, error)
	LogRun(ctx context.Context, e sensor.LogEntry) (int64, error)
}

// Result is the outcome of one device in one cycle.
type Result struct {
	Alias    string
	DeviceID string
	State    State
	Fetched  int
	New      int
	Err      error
}

// Summary is the outcome of one cycle.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Failed returns the number of devices that ended in StateFailed.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.State == StateFailed {
			n++
		}
	}
	return n
}

// NewRecords returns the number of measurements stored for the first time.
func (s Summary) NewRecords() int {
	n := 0
	for _, r := range s.Results {
		n += r.New
	}
	return n
}

// Runner executes download cycles.
type Runner struct {
	cfg     *config.Config
	fetcher Fetcher
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	runIDs  RunIDGenerator
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records every device outcome on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithRunIDGenerator replaces the UUIDv7 run id source.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) {
		r.runIDs = g
	}
}

// WithNow replaces the wall clock used for log timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New creates a Runner. cfg supplies lines, zoom and the retry policy and
// must have passed config.Validate.
func New(cfg *config.Config, fetcher Fetcher, store Store, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		runIDs:  UUIDv7Generator{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce downloads every device once, in order.
//
// Device failures are recorded in the download log and in the returned
// Summary; RunOnce itself never fails. A cancelled ctx stops the cycle
// before the next device starts.
func (r *Runner) RunOnce(ctx context.Context, devices []sensor.Device) Summary {
	summary := Summary{
		RunID:   r.runIDs.Generate(),
		Started: r.now(),
		Results: make([]Result, 0, len(devices)),
	}
	logger := r.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("download cycle starting", zap.Int("devices", len(devices)))

	for _, device := range devices {
		if err := ctx.Err(); err != nil {
			logger.Warn("download cycle interrupted",
				zap.Int("remaining", len(devices)-len(summary.Results)),
				zap.Error(err),
			)
			break
		}

		res := r.runDevice(ctx, logger.With(zap.String("alias", device.Alias)), device)
		r.logResult(ctx, logger, summary.RunID, res)
		summary.Results = append(summary.Results, res)
	}

	summary.Finished = r.now()
	r.metrics.RecordCycle(summary.Finished)

	logger.Info("download cycle finished",
		zap.Int("devices", len(summary.Results)),
		zap.Int("failed", summary.Failed()),
		zap.Int("new_records", summary.NewRecords()),
		zap.Duration("duration", summary.Finished.Sub(summary.Started)),
	)
	return summary
}

// runDevice drives one device to a terminal state.
func (r *Runner) runDevice(ctx context.Context, logger *zap.Logger, device sensor.Device) Result {
	res := Result{Alias: device.Alias, DeviceID: device.ID, State: StatePending}

	fail := func(err error) Result {
		res.State = StateFailed
		res.Err = err
		return res
	}

	// Writes outlive cancellation so a device in progress is finished
	// rather than cut off between records.
	writeCtx := context.WithoutCancel(ctx)

	if err := r.store.UpsertDevice(writeCtx, device); err != nil {
		return fail(&sensor.StorageError{Op: "register device", Err: err})
	}

	res.State = StateFetching
	records, err := r.fetch(ctx, logger, device)
	if err != nil {
		return fail(err)
	}
	res.Fetched = len(records)

	res.State = StateResolving
	resolver := sensor.NewResolver(device)
	measurements := make([]sensor.Measurement, len(records))
	for i, rec := range records {
		measurements[i] = sensor.Measurement{
			DeviceID:  device.ID,
			Timestamp: rec.Timestamp,
			RawLine:   rec.Line,
			Fields:    resolver.Resolve(rec.Values),
		}
	}

	res.State = StateStoring
	for _, m := range measurements {
		inserted, err := r.store.IngestMeasurement(writeCtx, m)
		if err != nil {
			logger.Error("storing measurement failed, skipping remaining records",
				zap.Time("timestamp", m.Timestamp),
				zap.Int("fetched", res.Fetched),
				zap.Int("new_so_far", res.New),
				zap.Error(err),
			)
			return fail(&sensor.StorageError{Op: "ingest measurement", Err: err})
		}
		if inserted {
			res.New++
		}
	}

	res.State = StateOK
	return res
}

// fetch calls the fetcher under the configured retry policy. Only
// temporary fetch errors are retried.
func (r *Runner) fetch(ctx context.Context, logger *zap.Logger, device sensor.Device) ([]sensor.RawRecord, error) {
	attempts := r.cfg.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var records []sensor.RawRecord
	err := retry.Do(
		func() error {
			var err error
			records, err = r.fetcher.Fetch(ctx, device, r.cfg.Lines, r.cfg.Zoom)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(r.cfg.Retry.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(sensor.IsTemporary),
		retry.OnRetry(func(n uint, err error) {
			// Also called after the final attempt, when nothing follows.
			if int(n)+1 >= attempts {
				return
			}
			logger.Warn("fetch failed, retrying",
				zap.Uint("attempt", n+1),
				zap.Int("max_attempts", attempts),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// logResult appends the device's download log entry and records metrics.
func (r *Runner) logResult(ctx context.Context, logger *zap.Logger, runID string, res Result) {
	entry := sensor.LogEntry{
		RunID:        runID,
		DeviceAlias:  res.Alias,
		DownloadedAt: r.now(),
		FetchedCount: res.Fetched,
		NewCount:     res.New,
		Status:       sensor.StatusOK,
	}
	if res.Err != nil {
		entry.Status = sensor.ErrorStatus(res.Err)
	}

	// A cancelled cycle still logs the device it was working on.
	if _, err := r.store.LogRun(context.WithoutCancel(ctx), entry); err != nil {
		logger.Error("writing download log failed",
			zap.String("alias", res.Alias),
			zap.String("status", entry.Status),
			zap.Error(err),
		)
	}

	r.metrics.RecordDownload(res.Alias, res.Fetched, res.New, res.Err == nil)

	if res.Err != nil {
		logger.Error("device download failed",
			zap.String("alias", res.Alias),
			zap.String("device_id", res.DeviceID),
			zap.Int("fetched", res.Fetched),
			zap.Int("new", res.New),
			zap.Error(res.Err),
		)
		return
	}
	logger.Info("device download complete",
		zap.String("alias", res.Alias),
		zap.Int("fetched", res.Fetched),
		zap.Int("new", res.New),
	)
}
