package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrStatement marks a failure confined to one record.
	ErrStatement = errors.New("statement failed")

	// ErrUnresolved marks a record whose cross-reference could not be resolved.
	// Such records are skipped, not failed.
	ErrUnresolved = errors.New("reference not resolved")

	// ErrFatal marks a connectivity or session level failure that aborts the run.
	ErrFatal = errors.New("fatal store error")
)

// StatementError is a recoverable failure of a single record.
type StatementError struct {
	Entity string
	Key    string
	Err    error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Key, e.Err)
}

func (e *StatementError) Is(target error) bool {
	return target == ErrStatement
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// UnresolvedError explains why a record was skipped.
type UnresolvedError struct {
	Entity string
	Key    string
	Reason string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Key, e.Reason)
}

func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}

// NewUnresolved returns an UnresolvedError.
func NewUnresolved(entity, key, reason string) *UnresolvedError {
	return &UnresolvedError{Entity: entity, Key: key, Reason: reason}
}

// FatalError aborts the run. Stage is the stage that was running.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("fatal: %v", e.Err)
	}
	return fmt.Sprintf("fatal in stage %s: %v", e.Stage, e.Err)
}

func (e *FatalError) Is(target error) bool {
	return target == ErrFatal
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatal wraps err unless it already is a FatalError.
func NewFatal(stage string, err error) error {
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	return &FatalError{Stage: stage, Err: err}
}

// postgres SQLSTATE classes that mean the session itself is unusable
var fatalSQLStateClasses = []string{
	"08", // connection exception
	"28", // invalid authorization specification
	"53", // insufficient resources
	"57", // operator intervention
	"3D", // invalid catalog name
}

var fatalMySQLErrors = map[uint16]struct{}{
	1040: {}, // too many connections
	1044: {}, // access denied for user to database
	1045: {}, // access denied for user
	1049: {}, // unknown database
	1053: {}, // server shutdown in progress
	2002: {}, // can't connect through socket
	2003: {}, // can't connect to server
	2006: {}, // server has gone away
	2013: {}, // lost connection during query
}

// IsFatal reports whether err means a store cannot be used any more.
// Everything else is treated as a statement level failure.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrFatal) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, class := range fatalSQLStateClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		_, ok := fatalMySQLErrors[myErr.Number]
		return ok
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
