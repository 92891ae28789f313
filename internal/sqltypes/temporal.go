package sqltypes

import (
	"fmt"
	"time"
)

// Canonical text layouts for temporal values. They match the literal forms the
// supported databases accept on read-back.
const (
	DateLayout        = "2006-01-02"
	TimeLayout        = "15:04:05"
	TimeTZLayout      = "15:04:05Z07:00"
	TimestampLayout   = "2006-01-02 15:04:05.999999999"
	TimestampTZLayout = time.RFC3339Nano
)

// TemporalLayout returns the canonical layout for a temporal code.
func TemporalLayout(code Code) (string, bool) {
	switch code {
	case Date:
		return DateLayout, true
	case Time:
		return TimeLayout, true
	case TimeWithTimezone:
		return TimeTZLayout, true
	case Timestamp, TimestampUTC:
		return TimestampLayout, true
	case TimestampWithTimezone:
		return TimestampTZLayout, true
	}
	return "", false
}

// FormatTemporal renders t in the canonical layout of code. Timestamps without
// a zone are rendered in t's own location; TimestampUTC is converted to UTC.
func FormatTemporal(code Code, t time.Time) (string, error) {
	layout, ok := TemporalLayout(code)
	if !ok {
		return "", fmt.Errorf("sqltypes: %s is not a temporal type", code)
	}
	if code == TimestampUTC {
		t = t.UTC()
	}
	return t.Format(layout), nil
}

// ParseTemporal parses s using the canonical layout of code. Timestamps also
// accept the ISO "T" separator some drivers return.
func ParseTemporal(code Code, s string) (time.Time, error) {
	layout, ok := TemporalLayout(code)
	if !ok {
		return time.Time{}, fmt.Errorf("sqltypes: %s is not a temporal type", code)
	}
	t, err := time.Parse(layout, s)
	if err == nil {
		return t, nil
	}
	if code == Timestamp || code == TimestampUTC {
		if t2, err2 := time.Parse("2006-01-02T15:04:05.999999999", s); err2 == nil {
			return t2, nil
		}
		if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return t2, nil
		}
	}
	return time.Time{}, fmt.Errorf("sqltypes: parse %s %q: %w", code, s, err)
}
