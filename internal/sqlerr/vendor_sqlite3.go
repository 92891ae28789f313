//go:build cgo

package sqlerr

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

func init() {
	adapters = append(adapters, fromSQLite3)
}

func fromSQLite3(err error) (*VendorError, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return nil, false
	}
	code := int(se.ExtendedCode)
	if code == 0 {
		code = int(se.Code)
	}
	return &VendorError{Code: code, Message: se.Error(), Err: err}, true
}
