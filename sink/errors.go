package sink

import (
	"errors"
	"fmt"
	"strconv"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrUnsupportedSink is matched by errors.Is for every UnsupportedSinkError
var ErrUnsupportedSink = errors.New("unsupported sink")

// ConnectionError reports a failure to establish a sink connection
type ConnectionError struct {
	Kind Kind
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s sink: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UnsupportedSinkError is returned by every delivery through a handle whose kind has no adapter
type UnsupportedSinkError struct {
	Kind Kind
}

func (e *UnsupportedSinkError) Error() string {
	if e.Kind == "" {
		return "unsupported sink: kind is not set"
	}
	return fmt.Sprintf("unsupported sink %q", string(e.Kind))
}

func (e *UnsupportedSinkError) Unwrap() error {
	return ErrUnsupportedSink
}

// DeliveryError reports a row the sink rejected or could not accept
type DeliveryError struct {
	Index int
	Table string
	Err   error
}

func (e *DeliveryError) Error() string {
	if code := e.Code(); code != "" {
		return fmt.Sprintf("delivery of row %d into %s failed (code %s): %v", e.Index, e.Table, code, e.Err)
	}
	return fmt.Sprintf("delivery of row %d into %s failed: %v", e.Index, e.Table, e.Err)
}

// Code returns the driver error code behind the failure, or "" when the
// cause did not come from a database driver.
// Postgres reports its SQLSTATE, the others their numeric error code.
func (e *DeliveryError) Code() string {
	return sqlErrorCode(e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func sqlErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return strconv.Itoa(int(mysqlErr.Number))
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return strconv.Itoa(int(msErr.Number))
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(int(liteErr.Code))
	}

	return ""
}
