// Package sensor defines the domain types shared by the ingestion pipeline:
// configured devices, raw records as returned by the SensorFor cloud API,
// resolved measurement fields and download log entries.
//
// It also holds the FieldResolver, which maps a record's positional values
// to named fields, and the error taxonomy the runner uses to decide how a
// failure is recorded.
package sensor
