// Package aggregate encodes composite (embeddable) values into the wire
// forms dialects use for aggregate columns: native STRUCT values, JSON
// objects and a small XML format with one element per attribute.
package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed is matched by every ParseError.
	ErrMalformed = errors.New("aggregate: malformed payload")
	// ErrValue is returned when a domain value does not fit its embeddable.
	ErrValue = errors.New("aggregate: invalid value")
	// ErrFormat is returned for an unknown wire format.
	ErrFormat = errors.New("aggregate: unknown format")
)

// Format is an aggregate wire format.
type Format int

// Wire formats.
const (
	FormatStruct Format = iota
	FormatJSON
	FormatXML
)

var formatNames = [...]string{"struct", "json", "xml"}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(formatNames) {
		return nil, fmt.Errorf("%w: %d", ErrFormat, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range formatNames {
		if n == s {
			*f = Format(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrFormat, s)
}

// ParseError reports a payload that could not be decoded. Offset is the byte
// position of the problem and Tag the element or key being read, if any.
type ParseError struct {
	Format Format
	Offset int
	Tag    string
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("aggregate: %s: offset %d (%s): %s", e.Format, e.Offset, e.Tag, e.Msg)
	}
	return fmt.Sprintf("aggregate: %s: offset %d: %s", e.Format, e.Offset, e.Msg)
}

// Is matches ErrMalformed.
func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// Value is a composite value in the declared attribute order of its
// embeddable. Nested composites are Values, array attributes are []any and
// NULL attributes are nil.
type Value []any

// Codec converts composite values to and from one wire format. Decode never
// returns a partially populated Value: on error the Value is nil.
type Codec interface {
	Format() Format
	Embeddable() *Embeddable
	Encode(v Value) (any, error)
	Decode(src any) (Value, error)
}

// NewCodec returns the codec of format f for e.
func NewCodec(f Format, e *Embeddable) (Codec, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil embeddable", ErrValue)
	}
	switch f {
	case FormatStruct:
		return &StructCodec{e: e}, nil
	case FormatJSON:
		return &JSONCodec{e: e}, nil
	case FormatXML:
		return &XMLCodec{e: e}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrFormat, int(f))
}

func asValue(x any) (Value, bool) {
	switch v := x.(type) {
	case Value:
		return v, true
	case []any:
		return Value(v), true
	}
	return nil, false
}

func payload(f Format, src any) (string, error) {
	switch s := src.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", &ParseError{Format: f, Msg: "empty payload"}
	}
	return "", &ParseError{Format: f, Msg: fmt.Sprintf("unexpected payload type %T", src)}
}
