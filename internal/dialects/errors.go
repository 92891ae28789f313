package dialects

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDialect is returned by Lookup for unknown names.
	ErrUnsupportedDialect = errors.New("sqldialect: unsupported dialect")
	// ErrConfiguration is matched by every ConfigError.
	ErrConfiguration = errors.New("sqldialect: dialect configuration error")
	// ErrUnsupported is matched by every UnsupportedError.
	ErrUnsupported = errors.New("sqldialect: unsupported feature")
)

// ConfigError reports a dialect that could not be built: an unregistered
// type code, an invalid column or function template, a bad option.
type ConfigError struct {
	Dialect string
	Detail  string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("sqldialect: %s dialect: %s", e.Dialect, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error { return e.Err }

// Is matches ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// UnsupportedError reports a construct the dialect cannot express.
type UnsupportedError struct {
	Dialect string
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("sqldialect: %s is not supported by the %s dialect", e.Feature, e.Dialect)
}

// Is matches ErrUnsupported.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// Unsupported returns an UnsupportedError for feature on d.
func (d *Dialect) Unsupported(feature string) error {
	return &UnsupportedError{Dialect: d.name, Feature: feature}
}
