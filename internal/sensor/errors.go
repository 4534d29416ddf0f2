package sensor

import (
	"errors"
	"fmt"
)

// FetchError is returned when a device's data could not be retrieved: the
// network call failed, the API answered with a non-success status or an
// error message, or the payload could not be parsed.
//
// Temporary errors (transport failures, HTTP 5xx) may succeed on retry;
// API-reported errors such as an unknown device will not.
type FetchError struct {
	DeviceID  string
	Temporary bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch device %s: %v", e.DeviceID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StorageError is returned when a write or read against the local store
// fails during a download cycle.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UnknownDeviceError is returned by the query path for an alias that is not
// configured.
type UnknownDeviceError struct {
	Alias string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("no device with alias %q is configured", e.Alias)
}

// IsTemporary reports whether err is a FetchError worth retrying.
// Uses errors.As to handle wrapped errors.
func IsTemporary(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Temporary
	}
	return false
}

// IsUnknownDevice reports whether err is an UnknownDeviceError.
func IsUnknownDevice(err error) bool {
	var ue *UnknownDeviceError
	return errors.As(err, &ue)
}
