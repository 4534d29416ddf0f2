package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolver names the variable fields of a device's records.
type Resolver struct {
	names []string
}

// NewResolver returns a Resolver for the device's configured field names.
func NewResolver(d Device) Resolver {
	return Resolver{names: d.FieldNames}
}

// Resolve maps values to fields. See ResolveFields.
func (r Resolver) Resolve(values []string) []Field {
	return ResolveFields(r.names, values)
}

// ResolveFields names values positionally. The value at position i takes
// names[i] when configured and "field_<i>" otherwise. Configured names past
// the last value are ignored, so the result has exactly len(values) entries.
func ResolveFields(names []string, values []string) []Field {
	fields := make([]Field, 0, len(values))
	for i, raw := range values {
		fields = append(fields, Field{
			Name:  FieldName(names, i),
			Value: ParseValue(raw),
		})
	}
	return fields
}

// FieldName returns the name for variable position i.
func FieldName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("field_%d", i)
}

// ParseValue converts a raw value: numbers become float64, empty strings
// become nil and anything else is kept as text.
func ParseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
