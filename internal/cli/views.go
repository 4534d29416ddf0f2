package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sensorfor/downloader/internal/runner"
	"github.com/sensorfor/downloader/internal/sensor"
)

// StatusView is the result of --status.
type StatusView struct {
	Entries []sensor.LogEntry `json:"entries"`
}

// RenderText prints the log as a fixed-width table, newest first.
func (v StatusView) RenderText(w io.Writer) error {
	if len(v.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No download history found.")
		return err
	}

	header := fmt.Sprintf("%5s  %-22s  %-19s  %7s  %6s  Status", "ID", "Device", "Downloaded at", "Fetched", "New")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("─", len(header)))
	for _, e := range v.Entries {
		fmt.Fprintf(w, "%5d  %-22s  %-19s  %7d  %6d  %s\n",
			e.ID,
			e.DeviceAlias,
			e.DownloadedAt.Format(sensor.TimestampLayout),
			e.FetchedCount,
			e.NewCount,
			e.Status,
		)
	}
	return nil
}

// QueryView is the result of --query.
type QueryView struct {
	Alias        string               `json:"alias"`
	Limit        int                  `json:"limit"`
	Measurements []sensor.Measurement `json:"measurements"`
}

// RenderText prints one block per timestamp with one line per field.
func (v QueryView) RenderText(w io.Writer) error {
	if len(v.Measurements) == 0 {
		_, err := fmt.Fprintf(w, "No measurement data found for alias '%s'.\n", v.Alias)
		return err
	}

	fmt.Fprintf(w, "Last %d measurements for '%s':\n\n", v.Limit, v.Alias)
	for _, m := range v.Measurements {
		fmt.Fprintf(w, "  %s\n", m.Timestamp.Format(sensor.TimestampLayout))
		for _, f := range m.Fields {
			fmt.Fprintf(w, "    %-24s %s\n", f.Name, formatValue(f.Value))
		}
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "(null)"
	case float64:
		return fmt.Sprintf("%.4g", val)
	default:
		return fmt.Sprint(val)
	}
}

// RunView is the result of --run-now.
type RunView struct {
	RunID   string          `json:"run_id"`
	Devices []RunDeviceView `json:"devices"`
}

// RunDeviceView is one device line of a RunView.
type RunDeviceView struct {
	Alias   string `json:"alias"`
	Fetched int    `json:"fetched_count"`
	New     int    `json:"new_count"`
	Status  string `json:"status"`
}

func newRunView(s runner.Summary) RunView {
	v := RunView{RunID: s.RunID, Devices: make([]RunDeviceView, 0, len(s.Results))}
	for _, r := range s.Results {
		status := sensor.StatusOK
		if r.Err != nil {
			status = sensor.ErrorStatus(r.Err)
		}
		v.Devices = append(v.Devices, RunDeviceView{
			Alias:   r.Alias,
			Fetched: r.Fetched,
			New:     r.New,
			Status:  status,
		})
	}
	return v
}

// RenderText prints a one-line summary followed by one line per device.
func (v RunView) RenderText(w io.Writer) error {
	failed, added := 0, 0
	for _, d := range v.Devices {
		if d.Status != sensor.StatusOK {
			failed++
		}
		added += d.New
	}

	fmt.Fprintf(w, "Run %s: %d device(s), %d failed, %d new record(s)\n", v.RunID, len(v.Devices), failed, added)
	for _, d := range v.Devices {
		fmt.Fprintf(w, "  %-22s  %7d  %6d  %s\n", d.Alias, d.Fetched, d.New, d.Status)
	}
	return nil
}
