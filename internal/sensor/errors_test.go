package sensor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTemporary(t *testing.T) {
	temp := &FetchError{DeviceID: "1", Temporary: true, Err: errors.New("timeout")}
	perm := &FetchError{DeviceID: "1", Err: errors.New("Device does not exist.")}

	assert.True(t, IsTemporary(temp))
	assert.True(t, IsTemporary(fmt.Errorf("attempt 2: %w", temp)))
	assert.False(t, IsTemporary(perm))
	assert.False(t, IsTemporary(errors.New("plain")))
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{DeviceID: "12345", Err: errors.New("API reported: There is no data.")}

	assert.Equal(t, "fetch device 12345: API reported: There is no data.", err.Error())
	assert.Equal(t, "error: fetch device 12345: API reported: There is no data.", ErrorStatus(err))
}

func TestStorageError_Unwrap(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := &StorageError{Op: "ingest measurement", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage ingest measurement: disk I/O error", err.Error())
}

func TestIsUnknownDevice(t *testing.T) {
	err := fmt.Errorf("query: %w", &UnknownDeviceError{Alias: "nonexistent"})

	assert.True(t, IsUnknownDevice(err))
	assert.False(t, IsUnknownDevice(errors.New("other")))
	assert.Contains(t, err.Error(), `"nonexistent"`)
}
