// Package runner implements the download cycle.
//
// A cycle walks the configured devices in order. Each device moves through
//
//	PENDING → FETCHING → RESOLVING → STORING → {OK, FAILED}
//
// and always ends with exactly one download log entry. A failing device
// never stops the cycle: fetch and storage errors are converted into an
// "error: <message>" log status and the next device is processed.
//
// Devices are processed sequentially on the caller's goroutine. The context
// is checked between devices; a cancelled context ends the cycle early and
// leaves the remaining devices unlogged.
package runner
