package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sensorfor/downloader/internal/query"
	"github.com/sensorfor/downloader/internal/sensor"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	a, err := openApp(opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := query.New(a.cfg, a.store).Status(commandContext(cmd), query.DefaultStatusLimit)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStorage, err)
	}
	return formatter.Success(StatusView{Entries: entries})
}

func runQuery(opts *RootOptions, alias string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	a, err := openApp(opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer a.Close()

	measurements, err := query.New(a.cfg, a.store).Query(commandContext(cmd), alias, query.DefaultQueryLimit)
	if err != nil {
		code := ErrCodeStorage
		if sensor.IsUnknownDevice(err) {
			code = ErrCodeUnknownDevice
		}
		return formatter.Fail(ExitFailure, code, err)
	}
	return formatter.Success(QueryView{
		Alias:        alias,
		Limit:        query.DefaultQueryLimit,
		Measurements: measurements,
	})
}
