package cache

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

var errPrepare = errors.New("mock: syntax error")

// Mock driver for tests and benchmarks. Statements containing "broken"
// fail to prepare.
type mockDriver struct{}

type mockConn struct{}

type mockStmt struct {
	query string
}

func (d *mockDriver) Open(_ string) (driver.Conn, error) {
	return &mockConn{}, nil
}

func (c *mockConn) Prepare(query string) (driver.Stmt, error) {
	if strings.Contains(query, "broken") {
		return nil, errPrepare
	}
	return &mockStmt{query: query}, nil
}

func (c *mockConn) Close() error { return nil }

func (c *mockConn) Begin() (driver.Tx, error) {
	return nil, driver.ErrSkip
}

func (s *mockStmt) Close() error { return nil }

func (s *mockStmt) NumInput() int { return -1 }

func (s *mockStmt) Exec(_ []driver.Value) (driver.Result, error) {
	return nil, driver.ErrSkip
}

func (s *mockStmt) Query(_ []driver.Value) (driver.Rows, error) {
	return nil, driver.ErrSkip
}

var driverCounter atomic.Uint64

// registerMockDriver registers a unique mock driver and returns a DB connection.
func registerMockDriver() (*sql.DB, error) {
	driverName := fmt.Sprintf("mock-driver-%d", driverCounter.Add(1))
	sql.Register(driverName, &mockDriver{})
	return sql.Open(driverName, "")
}
