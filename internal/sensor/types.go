package sensor

import "time"

// TimestampLayout is the storage format for measurement timestamps.
// Second granularity, no zone: the API reports device-local wall time.
const TimestampLayout = "2006-01-02T15:04:05"

// Device is a configured sensor. ID is assigned by SensorFor and printed on
// the device label; Alias is the short name used on the command line.
type Device struct {
	ID         string   `yaml:"device_id" json:"device_id"`
	Alias      string   `yaml:"alias" json:"alias"`
	FieldNames []string `yaml:"field_names" json:"field_names"`
}

// RawRecord is one parsed line of an API response.
type RawRecord struct {
	Timestamp time.Time
	Module    string
	Values    []string // positions 7+ of the line, trailing empty value removed
	Line      string
}

// Field is a single named value of a measurement.
// Value is a float64, a string, or nil.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Measurement is a stored (or to-be-stored) record for one device at one
// point in time.
type Measurement struct {
	ID        int64     `json:"id,omitempty"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	RawLine   string    `json:"raw_line,omitempty"`
	Fields    []Field   `json:"fields"`
}

// Status values recorded in the download log.
const (
	StatusOK          = "ok"
	statusErrorPrefix = "error: "
)

// ErrorStatus formats err as a download log status.
func ErrorStatus(err error) string {
	return statusErrorPrefix + err.Error()
}

// LogEntry is one row of the download log: the outcome of one device in one
// download cycle.
type LogEntry struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	DeviceAlias  string    `json:"device_alias"`
	DownloadedAt time.Time `json:"downloaded_at"`
	FetchedCount int       `json:"fetched_count"`
	NewCount     int       `json:"new_count"`
	Status       string    `json:"status"`
}

