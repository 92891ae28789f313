// Package sqlerr converts raw driver errors into a bounded taxonomy of domain
// errors using per-dialect delegates and constraint-name extractors.
package sqlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a converted error.
type Kind int

// Error kinds.
const (
	Unrecognized Kind = iota
	ConstraintViolation
	LockTimeout
	LockAcquisition
	PessimisticLock
	QueryTimeout
	SQLGrammar
	DataError
	Connection
)

var kindNames = [...]string{
	"unrecognized database error",
	"constraint violation",
	"lock timeout",
	"lock acquisition failure",
	"pessimistic lock failure",
	"query timeout",
	"SQL grammar error",
	"data error",
	"connection error",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ConstraintKind classifies constraint violations.
type ConstraintKind int

// Constraint kinds.
const (
	OtherConstraint ConstraintKind = iota
	Unique
	NotNull
	ForeignKey
	Check
)

var constraintNames = [...]string{"OTHER", "UNIQUE", "NOT_NULL", "FOREIGN_KEY", "CHECK"}

func (c ConstraintKind) String() string {
	if c >= 0 && int(c) < len(constraintNames) {
		return constraintNames[c]
	}
	return "UNKNOWN"
}

// Kind sentinels; errors.Is(err, ErrLockAcquisition) matches a converted
// error of that kind.
var (
	ErrUnrecognized        = errors.New("sqldialect: unrecognized database error")
	ErrConstraintViolation = errors.New("sqldialect: constraint violation")
	ErrLockTimeout         = errors.New("sqldialect: lock timeout")
	ErrLockAcquisition     = errors.New("sqldialect: lock acquisition failure")
	ErrPessimisticLock     = errors.New("sqldialect: pessimistic lock failure")
	ErrQueryTimeout        = errors.New("sqldialect: query timeout")
	ErrSQLGrammar          = errors.New("sqldialect: SQL grammar error")
	ErrDataError           = errors.New("sqldialect: data error")
	ErrConnection          = errors.New("sqldialect: connection error")
)

var sentinels = [...]error{
	ErrUnrecognized, ErrConstraintViolation, ErrLockTimeout, ErrLockAcquisition,
	ErrPessimisticLock, ErrQueryTimeout, ErrSQLGrammar, ErrDataError, ErrConnection,
}

// Sentinel returns the sentinel error of k.
func (k Kind) Sentinel() error {
	if k >= 0 && int(k) < len(sentinels) {
		return sentinels[k]
	}
	return ErrUnrecognized
}

// Error is a converted database error. It wraps the driver error.
type Error struct {
	Kind           Kind
	Constraint     ConstraintKind
	ConstraintName string
	Dialect        string
	SQL            string
	SQLState       string
	ErrorCode      int
	Err            error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("sqldialect: ")
	if e.Kind == ConstraintViolation && e.Constraint != OtherConstraint {
		b.WriteString(strings.ToLower(strings.ReplaceAll(e.Constraint.String(), "_", "-")) + " ")
	}
	b.WriteString(e.Kind.String())
	if e.ConstraintName != "" {
		fmt.Fprintf(&b, " (constraint %q)", e.ConstraintName)
	}
	if e.SQLState != "" || e.ErrorCode != 0 {
		fmt.Fprintf(&b, " [sqlstate=%s code=%d]", e.SQLState, e.ErrorCode)
	}
	if e.Dialect != "" {
		b.WriteString(" on " + e.Dialect)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the driver error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind. A lock timeout is also a lock
// acquisition failure.
func (e *Error) Is(target error) bool {
	if target == e.Kind.Sentinel() {
		return true
	}
	return e.Kind == LockTimeout && target == ErrLockAcquisition
}

// IsConstraint reports whether err is a constraint violation of kind c.
func IsConstraint(err error, c ConstraintKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ConstraintViolation && e.Constraint == c
}

// ConstraintName returns the violated constraint name carried by err, if any.
func ConstraintName(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.ConstraintName
	}
	return ""
}
