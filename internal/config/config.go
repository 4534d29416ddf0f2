// Package config loads the downloader configuration: download parameters,
// the weekly schedule, file paths and the static device list.
//
// Configuration is read once at startup and passed explicitly to the
// components that need it. Any problem is reported as a *ConfigError and is
// fatal.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sensorfor/downloader/internal/sensor"
)

// Defaults applied before validation.
const (
	DefaultAPIURL      = "https://www.sensorfor.com/cloud/m2m_data_get.php"
	DefaultLines       = 960
	DefaultZoom        = 1
	DefaultDay         = "monday"
	DefaultTime        = "02:00"
	DefaultDBPath      = "sensorfor.db"
	DefaultLogPath     = "sensorfor.log"
	DefaultLogLevel    = "info"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRetryDelay  = 5 * time.Second

	// MaxLines is the largest page the API accepts.
	MaxLines = 960
)

// Config is the complete downloader configuration.
type Config struct {
	APIURL      string          `yaml:"api_url" json:"api_url"`
	Lines       int             `yaml:"lines" json:"lines"`
	Zoom        int             `yaml:"zoom" json:"zoom"`
	Schedule    Schedule        `yaml:"schedule" json:"schedule"`
	DBPath      string          `yaml:"db_path" json:"db_path"`
	LogPath     string          `yaml:"log_path" json:"log_path"`
	LogLevel    string          `yaml:"log_level" json:"log_level"`
	HTTPTimeout time.Duration   `yaml:"http_timeout" json:"http_timeout"`
	Retry       Retry           `yaml:"retry" json:"retry"`
	MetricsAddr string          `yaml:"metrics_addr" json:"metrics_addr"`
	DevicesFile string          `yaml:"devices_file" json:"devices_file"`
	Devices     []sensor.Device `yaml:"devices" json:"devices"`
}

// Schedule is the weekly download slot.
type Schedule struct {
	Day  string `yaml:"day" json:"day"`   // monday … sunday
	Time string `yaml:"time" json:"time"` // HH:MM, 24h clock
}

// Retry controls how often a device's fetch is attempted when it fails with
// a temporary error. Attempts of 1 means no retry.
type Retry struct {
	Attempts int           `yaml:"attempts" json:"attempts"`
	Delay    time.Duration `yaml:"delay" json:"delay"`
}

// ConfigError reports an invalid or unreadable configuration.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	return "config: " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Default returns a configuration with every default applied and no devices.
func Default() *Config {
	return &Config{
		APIURL:      DefaultAPIURL,
		Lines:       DefaultLines,
		Zoom:        DefaultZoom,
		Schedule:    Schedule{Day: DefaultDay, Time: DefaultTime},
		DBPath:      DefaultDBPath,
		LogPath:     DefaultLogPath,
		LogLevel:    DefaultLogLevel,
		HTTPTimeout: DefaultHTTPTimeout,
		Retry:       Retry{Attempts: 1, Delay: DefaultRetryDelay},
	}
}

// Load reads and validates the configuration file at path.
// A relative devices_file is resolved against the directory of path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("read %s: %v", path, err), Err: err}
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes and validates configuration data. baseDir anchors a relative
// devices_file.
func Parse(data []byte, baseDir string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("decode: %v", err), Err: err}
	}

	if cfg.DevicesFile != "" {
		path := cfg.DevicesFile
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		devices, err := LoadDevices(path)
		if err != nil {
			return nil, err
		}
		cfg.Devices = devices
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDevices reads a device list from a JSON or YAML file. The top-level
// value must be a list.
func LoadDevices(path string) ([]sensor.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{
			Field:   "devices_file",
			Message: fmt.Sprintf("device file not found: %s", path),
			Err:     err,
		}
	}

	var devices []sensor.Device
	if err := yaml.Unmarshal(data, &devices); err != nil {
		return nil, &ConfigError{
			Field:   "devices_file",
			Message: fmt.Sprintf("invalid device file %s: top-level value must be a list of devices: %v", path, err),
			Err:     err,
		}
	}
	return devices, nil
}

// Validate checks value ranges against the embedded schema, then the
// rules that span devices.
func (c *Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}

	if len(c.Devices) == 0 {
		return &ConfigError{Field: "devices", Message: "no devices configured"}
	}

	ids := make(map[string]bool, len(c.Devices))
	aliases := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if ids[d.ID] {
			return &ConfigError{
				Field:   fmt.Sprintf("devices[%d].device_id", i),
				Message: fmt.Sprintf("duplicate device_id %q", d.ID),
			}
		}
		if aliases[d.Alias] {
			return &ConfigError{
				Field:   fmt.Sprintf("devices[%d].alias", i),
				Message: fmt.Sprintf("duplicate alias %q", d.Alias),
			}
		}
		ids[d.ID] = true
		aliases[d.Alias] = true

		if err := validateFieldNames(i, d.FieldNames); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldNames rejects names that would collide in a stored
// measurement: a repeated name, or a generated "field_N" name claimed by a
// different position.
func validateFieldNames(device int, names []string) error {
	seen := make(map[string]int, len(names))
	for j, name := range names {
		if name == "" {
			continue
		}
		field := fmt.Sprintf("devices[%d].field_names[%d]", device, j)
		if prev, ok := seen[name]; ok {
			return &ConfigError{
				Field:   field,
				Message: fmt.Sprintf("duplicate field name %q (also at position %d)", name, prev),
			}
		}
		seen[name] = j

		var n int
		if _, err := fmt.Sscanf(name, "field_%d", &n); err == nil && fmt.Sprintf("field_%d", n) == name && n != j {
			return &ConfigError{
				Field:   field,
				Message: fmt.Sprintf("field name %q is reserved for position %d", name, n),
			}
		}
	}
	return nil
}

// Device returns the configured device with the given alias.
func (c *Config) Device(alias string) (sensor.Device, bool) {
	alias = normalize(alias)
	for _, d := range c.Devices {
		if d.Alias == alias {
			return d, true
		}
	}
	return sensor.Device{}, false
}

// Weekday returns the scheduled day. Only valid after Validate.
func (s Schedule) Weekday() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s.Day) {
			return d
		}
	}
	return time.Monday
}

// Clock returns the scheduled hour and minute. Only valid after Validate.
func (s Schedule) Clock() (hour, minute int) {
	t, err := time.Parse("15:04", s.Time)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

// normalize trims identifiers and brings them to NFC so that visually equal
// names from different editors compare equal.
func (c *Config) normalize() {
	c.Schedule.Day = strings.ToLower(strings.TrimSpace(c.Schedule.Day))
	c.Schedule.Time = strings.TrimSpace(c.Schedule.Time)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	for i := range c.Devices {
		d := &c.Devices[i]
		d.ID = normalize(d.ID)
		d.Alias = normalize(d.Alias)
		for j, name := range d.FieldNames {
			d.FieldNames[j] = normalize(name)
		}
	}
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
