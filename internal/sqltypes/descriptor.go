package sqltypes

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// ErrConversion is returned when a value cannot be bound or extracted as the
// requested type.
var ErrConversion = errors.New("sqltypes: conversion failed")

// Binder converts a Go value into a driver value for one placeholder.
type Binder func(v any) (driver.Value, error)

// Extractor converts a value scanned from a driver into the canonical Go
// representation of a type code.
type Extractor func(src any) (any, error)

// Descriptor is the binder/extractor pair for one type code.
type Descriptor struct {
	Code    Code
	Bind    Binder
	Extract Extractor
}

// DescriptorFor returns the descriptor of code. Unknown codes bind any value
// database/sql accepts and extract values unchanged.
func DescriptorFor(code Code) Descriptor {
	d := Descriptor{Code: code, Bind: bindPassthrough, Extract: extractPassthrough}
	switch {
	case code == Boolean || code == Bit:
		d.Bind, d.Extract = bindBool, extractBool
	case code.IsInteger():
		d.Bind, d.Extract = bindInteger, extractInteger
	case code.IsFloatingPoint():
		d.Bind, d.Extract = bindFloat, extractFloat
	case code == Numeric || code == Decimal:
		d.Bind, d.Extract = bindDecimal, extractDecimal
	case code.IsCharacter():
		d.Bind, d.Extract = bindString, extractString
	case code.IsBinary():
		d.Bind, d.Extract = bindBytes, extractBytes
	case code.IsTemporal():
		d.Bind, d.Extract = bindTime, temporalExtractor(code)
	case code == UUID:
		d.Bind, d.Extract = bindUUID, extractUUID
	case code == JSON:
		d.Bind, d.Extract = bindJSON, extractJSON
	case code == Duration:
		d.Bind, d.Extract = bindDuration, extractDuration
	}
	return d
}

// Infer picks a type code for a Go value. It is used for parameters that do
// not declare a type.
func Infer(v any) Code {
	switch v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case int8, uint8:
		return TinyInt
	case int16, uint16:
		return SmallInt
	case int32, uint32:
		return Integer
	case int, int64, uint, uint64:
		return BigInt
	case float32:
		return Real
	case float64:
		return Double
	case *apd.Decimal, apd.Decimal:
		return Decimal
	case string:
		return VarChar
	case []byte:
		return VarBinary
	case time.Time:
		return TimestampWithTimezone
	case time.Duration:
		return Duration
	case uuid.UUID:
		return UUID
	case json.RawMessage:
		return JSON
	case fmt.Stringer:
		return VarChar
	}
	return Other
}

func convErr(v any, code string) error {
	return fmt.Errorf("%w: %T to %s", ErrConversion, v, code)
}

func valuer(v any) (any, bool, error) {
	if dv, ok := v.(driver.Valuer); ok {
		out, err := dv.Value()
		return out, true, err
	}
	return v, false, nil
}

func bindPassthrough(v any) (driver.Value, error) {
	if v, ok, err := valuer(v); ok || err != nil {
		return v, err
	}
	if driver.IsValue(v) {
		return v, nil
	}
	return nil, convErr(v, "driver value")
}

func extractPassthrough(src any) (any, error) {
	if b, ok := src.([]byte); ok {
		return append([]byte(nil), b...), nil
	}
	return src, nil
}

func bindBool(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	}
	if x, ok, err := valuer(v); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return bindBool(x)
	}
	return nil, convErr(v, "BOOLEAN")
}

func extractBool(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		return strconv.ParseBool(x)
	}
	return nil, convErr(src, "BOOLEAN")
}

func bindInteger(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, convErr(v, "BIGINT")
		}
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, convErr(v, "BIGINT")
		}
		return int64(x), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	}
	if x, ok, err := valuer(v); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return bindInteger(x)
	}
	return nil, convErr(v, "INTEGER")
}

func extractInteger(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) {
			return nil, convErr(src, "INTEGER")
		}
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return nil, convErr(src, "INTEGER")
}

func bindFloat(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	}
	if i, err := bindInteger(v); err == nil && i != nil {
		return float64(i.(int64)), nil
	}
	return nil, convErr(v, "DOUBLE")
}

func extractFloat(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return nil, convErr(src, "DOUBLE")
}

// bindDecimal binds exact decimals as their plain text form so no driver
// rounds them through float64.
func bindDecimal(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *apd.Decimal:
		if x == nil {
			return nil, nil
		}
		return x.Text('f'), nil
	case apd.Decimal:
		return x.Text('f'), nil
	case string:
		d, _, err := apd.NewFromString(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a decimal", ErrConversion, x)
		}
		return d.Text('f'), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	}
	if i, err := bindInteger(v); err == nil && i != nil {
		return strconv.FormatInt(i.(int64), 10), nil
	}
	return nil, convErr(v, "DECIMAL")
}

func extractDecimal(src any) (any, error) {
	var s string
	switch x := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		s = string(x)
	case string:
		s = x
	case int64:
		return apd.New(x, 0), nil
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return nil, convErr(src, "DECIMAL")
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a decimal", ErrConversion, s)
	}
	return d, nil
}

func bindString(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	if x, ok, err := valuer(v); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return bindString(x)
	}
	return nil, convErr(v, "VARCHAR")
}

func extractString(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return nil, convErr(src, "VARCHAR")
}

func bindBytes(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, convErr(v, "VARBINARY")
}

func extractBytes(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return append([]byte(nil), x...), nil
	case string:
		return []byte(x), nil
	}
	return nil, convErr(src, "VARBINARY")
}

func bindTime(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	}
	return nil, convErr(v, "TIMESTAMP")
}

func temporalExtractor(code Code) Extractor {
	return func(src any) (any, error) {
		switch x := src.(type) {
		case nil:
			return nil, nil
		case time.Time:
			return x, nil
		case []byte:
			return ParseTemporal(code, string(x))
		case string:
			return ParseTemporal(code, x)
		}
		return nil, convErr(src, code.String())
	}
}

func bindUUID(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return x.String(), nil
	case [16]byte:
		return uuid.UUID(x).String(), nil
	case string:
		u, err := uuid.Parse(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		return u.String(), nil
	}
	return nil, convErr(v, "UUID")
}

func extractUUID(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return uuid.ParseBytes(x)
	case string:
		return uuid.Parse(x)
	}
	return nil, convErr(src, "UUID")
}

func bindJSON(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case json.RawMessage:
		return string(x), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return string(b), nil
}

func extractJSON(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return json.RawMessage(append([]byte(nil), x...)), nil
	case string:
		return json.RawMessage(x), nil
	}
	return nil, convErr(src, "JSON")
}

func bindDuration(v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Duration:
		return int64(x), nil
	}
	return bindInteger(v)
}

func extractDuration(src any) (any, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case int64:
		return time.Duration(x), nil
	case []byte, string:
		i, err := extractInteger(x)
		if err != nil {
			return nil, err
		}
		return time.Duration(i.(int64)), nil
	}
	return nil, convErr(src, "DURATION")
}

// FormatDecimal renders d in plain (non-exponent) notation.
func FormatDecimal(d *apd.Decimal) string {
	s := d.Text('f')
	if strings.HasPrefix(s, "-0") && d.IsZero() {
		return s[1:]
	}
	return s
}
