package fetch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sensorfor/downloader/internal/sensor"
)

// APIErrors are the messages the API returns as the whole body instead of
// data.
var APIErrors = map[string]bool{
	"Device does not exist.": true,
	"API is not enabled.":    true,
	"Wrong number of lines.": true,
	"Wrong data zoom.":       true,
	"File does not exist.":   true,
	"There is no data.":      true,
}

// Layout of a data line: YY;MM;DD;HH;MM;SS;module;v0;v1;…
const (
	timestampParts = 6
	moduleIndex    = 6
	firstValue     = 7
)

// ErrMalformedPayload is returned when a non-empty body holds no parseable
// record.
var ErrMalformedPayload = errors.New("malformed payload: no parseable records")

// ParseBody splits a response body into records, keeping the API's
// most-recent-first order. Lines that cannot be parsed are counted in
// skipped. An API error message as the whole body is returned as an error.
func ParseBody(body string) (records []sensor.RawRecord, skipped int, err error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return []sensor.RawRecord{}, 0, nil
	}
	if APIErrors[body] {
		return nil, 0, fmt.Errorf("API reported: %s", body)
	}

	records = []sensor.RawRecord{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec, ok := ParseLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 && skipped > 0 {
		return nil, skipped, ErrMalformedPayload
	}
	return records, skipped, nil
}

// ParseLine parses one semicolon-separated data line. It reports false for
// API error strings, lines without at least one value, and lines whose
// timestamp is not a valid date.
func ParseLine(line string) (sensor.RawRecord, bool) {
	line = strings.TrimSpace(line)
	if line == "" || APIErrors[line] {
		return sensor.RawRecord{}, false
	}

	parts := strings.Split(line, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < firstValue+1 {
		return sensor.RawRecord{}, false
	}

	ts, ok := parseTimestamp(parts[:timestampParts])
	if !ok {
		return sensor.RawRecord{}, false
	}

	values := parts[firstValue:]
	if n := len(values); n > 0 && values[n-1] == "" {
		values = values[:n-1]
	}

	return sensor.RawRecord{
		Timestamp: ts,
		Module:    parts[moduleIndex],
		Values:    values,
		Line:      line,
	}, true
}

// parseTimestamp builds a time from YY;MM;DD;HH;MM;SS. The year is an
// offset from 2000. Out-of-range components are rejected rather than
// normalised.
func parseTimestamp(parts []string) (time.Time, bool) {
	var n [timestampParts]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}

	ts := time.Date(2000+n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, time.UTC)
	if ts.Year() != 2000+n[0] || int(ts.Month()) != n[1] || ts.Day() != n[2] ||
		ts.Hour() != n[3] || ts.Minute() != n[4] || ts.Second() != n[5] {
		return time.Time{}, false
	}
	return ts, true
}
