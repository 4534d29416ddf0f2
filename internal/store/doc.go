// Package store provides SQLite-backed durable storage for downloaded
// sensor measurements and the download audit log.
//
// The schema has four tables:
//   - devices: configured devices, keyed by device_id, alias unique
//   - measurements: one row per (device_id, timestamp), UNIQUE
//   - measurement_fields: entity-attribute-value rows, one per
//     (measurement_id, field_name), in resolver order
//   - download_log: append-only outcome of every device in every cycle
//
// # Write Guarantees
//
// Write-once measurements:
//   - INSERT ... ON CONFLICT(device_id, timestamp) DO NOTHING
//   - A re-fetched timestamp is a no-op, never an update
//   - RowsAffected distinguishes new rows from duplicates
//
// Atomic ingestion:
//   - A measurement and all of its fields commit in one transaction
//   - No transaction is held across a network call
//
// A unique-constraint race between two overlapping writers resolves to
// inserted=false for the loser instead of an error.
//
// # Database Configuration
//
//   - WAL mode: readers (--status, --query) do not block the writer
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// External tools are expected to query this database directly, so table
// and column names are part of the interface.
package store
