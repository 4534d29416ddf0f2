package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorfor/downloader/internal/runner"
	"github.com/sensorfor/downloader/internal/schedule"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "sensorfor.yaml"

// RootOptions holds the command's flags.
type RootOptions struct {
	ConfigPath string
	Database   string
	RunNow     bool
	Status     bool
	Query      string
	Verbose    bool
	Format     string // "json" | "text"

	// RunIDs and Clock override the run id source and the scheduler clock
	// (for testing). Nil uses UUIDv7 ids and the system clock.
	RunIDs runner.RunIDGenerator
	Clock  schedule.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the sensorfor command.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the sensorfor command bound to opts.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensorfor",
		Short: "SensorFor cloud measurement downloader",
		Long: `Download sensor measurements from the SensorFor cloud API into SQLite.

Without flags the downloader runs as a scheduler and fetches every configured
device once a week at the configured day and time. Every device download is
recorded in the download_log table; measurements already stored are never
written twice.

Example:
  sensorfor --config sensorfor.yaml
  sensorfor --run-now
  sensorfor --status --format json
  sensorfor --query office_sensor`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Errors are reported by the formatter or Execute
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.Status:
				return runStatus(opts, cmd)
			case cmd.Flags().Changed("query"):
				return runQuery(opts, opts.Query, cmd)
			case opts.RunNow:
				return runNow(opts, cmd)
			default:
				return runScheduler(opts, cmd)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", DefaultConfigPath, "path to the YAML configuration file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides db_path)")
	cmd.Flags().BoolVar(&opts.RunNow, "run-now", false, "download all devices once and exit")
	cmd.Flags().BoolVar(&opts.Status, "status", false, "print the last 20 download log entries and exit")
	cmd.Flags().StringVar(&opts.Query, "query", "", "print the last 10 measurements of the device `alias` and exit")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.MarkFlagsMutuallyExclusive("run-now", "status", "query")

	return cmd
}

// Execute runs the sensorfor command with the process arguments and
// returns the exit code. Errors not already reported by a command (flag
// errors) are printed to stderr.
func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return ExitCommandError
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
