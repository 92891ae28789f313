package sqlerr

import (
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// VendorError is the driver-independent view of a database error: the
// SQLSTATE, the vendor error code and the message.
type VendorError struct {
	SQLState string
	Code     int
	Message  string
	// Constraint is set when the driver reports the constraint name itself.
	Constraint string
	Err        error
}

func (v *VendorError) Error() string {
	if v.Err != nil {
		return v.Err.Error()
	}
	return v.Message
}

// Unwrap returns the driver error.
func (v *VendorError) Unwrap() error { return v.Err }

// sqlStateError is implemented by drivers that expose the SQLSTATE.
type sqlStateError interface {
	SQLState() string
}

// stringCoder is implemented by drivers with textual error codes.
type stringCoder interface {
	Code() string
}

// intCoder is implemented by modernc.org/sqlite.
type intCoder interface {
	Code() int
}

// numberer is implemented by MySQL-compatible drivers.
type numberer interface {
	Number() uint16
}

// adapter recognises one driver's concrete error type.
type adapter func(err error) (*VendorError, bool)

// adapters are tried in order before the interface fallbacks. Drivers that
// need cgo register theirs from build-tagged files.
var adapters = []adapter{fromPQ, fromMySQL}

// FromDriver extracts a VendorError from err's chain. It recognises lib/pq,
// go-sql-driver/mysql and (with cgo) mattn/go-sqlite3 errors directly and any
// driver exposing SQLState(), Code() or Number() methods.
func FromDriver(err error) (*VendorError, bool) {
	if err == nil {
		return nil, false
	}
	var ve *VendorError
	if errors.As(err, &ve) {
		return ve, true
	}
	for _, a := range adapters {
		if v, ok := a(err); ok {
			return v, true
		}
	}
	return fromInterfaces(err)
}

func fromPQ(err error) (*VendorError, bool) {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return &VendorError{
			SQLState:   string(pe.Code),
			Message:    pe.Message,
			Constraint: pe.Constraint,
			Err:        err,
		}, true
	}
	return nil, false
}

func fromMySQL(err error) (*VendorError, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil, false
	}
	v := &VendorError{Code: int(me.Number), Message: me.Message, Err: err}
	if me.SQLState != [5]byte{} {
		v.SQLState = string(me.SQLState[:])
	}
	return v, true
}

func fromInterfaces(err error) (*VendorError, bool) {
	v := &VendorError{Message: err.Error(), Err: err}
	found := false
	if e, ok := asError[sqlStateError](err); ok {
		v.SQLState, found = e.SQLState(), true
	}
	if e, ok := asError[intCoder](err); ok {
		v.Code, found = e.Code(), true
	} else if e, ok := asError[numberer](err); ok {
		v.Code, found = int(e.Number()), true
	} else if e, ok := asError[stringCoder](err); ok {
		code := e.Code()
		if n, convErr := strconv.Atoi(code); convErr == nil {
			v.Code = n
		} else if v.SQLState == "" {
			v.SQLState = code
		}
		found = true
	}
	return v, found
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
