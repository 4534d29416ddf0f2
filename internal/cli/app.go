package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sensorfor/downloader/internal/config"
	"github.com/sensorfor/downloader/internal/fetch"
	"github.com/sensorfor/downloader/internal/logging"
	"github.com/sensorfor/downloader/internal/metrics"
	"github.com/sensorfor/downloader/internal/runner"
	"github.com/sensorfor/downloader/internal/store"
)

// app holds what every mode needs: configuration, logger and store.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	closeLog func() error
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openApp loads the configuration, builds the logger and opens the store.
// Failures are reported through formatter and returned as ExitErrors with
// ExitCommandError.
func openApp(opts *RootOptions, cmd *cobra.Command, formatter *OutputFormatter) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	formatter.VerboseLog("Loaded %d device(s) from %s", len(cfg.Devices), opts.ConfigPath)

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:    level,
		FilePath: cfg.LogPath,
		Console:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	logger.Debug("opening database", zap.String("path", cfg.DBPath))
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		_ = closeLog()
		return nil, formatter.Fail(ExitCommandError, ErrCodeStorage, err)
	}

	return &app{cfg: cfg, logger: logger, store: st, closeLog: closeLog}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", zap.Error(err))
	}
	_ = a.closeLog()
}

// newRunner wires the fetch client and store into a Runner. m may be nil.
func (a *app) newRunner(opts *RootOptions, m *metrics.Metrics) *runner.Runner {
	client := fetch.NewClient(a.cfg.APIURL, a.cfg.HTTPTimeout, a.logger)

	runnerOpts := []runner.Option{runner.WithMetrics(m)}
	if opts.RunIDs != nil {
		runnerOpts = append(runnerOpts, runner.WithRunIDGenerator(opts.RunIDs))
	}
	return runner.New(a.cfg, client, a.store, a.logger, runnerOpts...)
}
