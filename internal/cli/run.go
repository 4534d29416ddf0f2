package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sensorfor/downloader/internal/metrics"
	"github.com/sensorfor/downloader/internal/schedule"
)

// runNow downloads every device once. Device failures are recorded in the
// download log and the summary; they do not change the exit code.
func runNow(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	a, err := openApp(opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext(commandContext(cmd), a.logger)
	defer cancel()

	summary := a.newRunner(opts, nil).RunOnce(ctx, a.cfg.Devices)
	return formatter.Success(newRunView(summary))
}

// runScheduler runs download cycles on the configured weekly schedule until
// SIGINT or SIGTERM.
func runScheduler(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	a, err := openApp(opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext(commandContext(cmd), a.logger)
	defer cancel()

	m := metrics.New()
	metricsErr := make(chan error, 1)
	if a.cfg.MetricsAddr != "" {
		go func() {
			metricsErr <- metrics.Serve(ctx, a.cfg.MetricsAddr, m, a.logger)
		}()
	}

	r := a.newRunner(opts, m)
	weekly := schedule.FromConfig(a.cfg.Schedule)
	sched := schedule.New(weekly, func(ctx context.Context) {
		r.RunOnce(ctx, a.cfg.Devices)
	}, a.logger, opts.Clock)

	fmt.Fprintf(cmd.OutOrStdout(), "Scheduler configured: %s. Press Ctrl-C to stop.\n", weekly)

	schedErr := make(chan error, 1)
	go func() { schedErr <- sched.Run(ctx) }()

	select {
	case err = <-schedErr:
	case err = <-metricsErr:
		if err != nil {
			cancel()
			<-schedErr
			return formatter.Fail(ExitFailure, ErrCodeScheduler, fmt.Errorf("metrics server: %w", err))
		}
		err = <-schedErr
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return formatter.Fail(ExitFailure, ErrCodeScheduler, err)
	}

	a.logger.Info("scheduler stopped gracefully")
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, or when
// parent is done.
func signalContext(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan) // Prevent signal handler leak
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	return ctx, cancel
}
