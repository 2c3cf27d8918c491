package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNoRows is returned by Row.Scan when the query matched nothing.
var ErrNoRows = sql.ErrNoRows

// Constraint classes a QueryError can carry.
var (
	ErrConstraint          = errors.New("constraint violation")
	ErrUniqueViolation     = fmt.Errorf("unique %w", ErrConstraint)
	ErrForeignKeyViolation = fmt.Errorf("foreign key %w", ErrConstraint)
	ErrCheckViolation      = fmt.Errorf("check %w", ErrConstraint)
	ErrNotNullViolation    = fmt.Errorf("not null %w", ErrConstraint)
)

// InitError means the storage file could not be created, opened or
// migrated. Callers treat it as fatal.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize storage %s: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// QueryError wraps a failed statement. Kind is one of the constraint
// classes above, or nil for I/O and malformed-query failures.
type QueryError struct {
	Op   string
	Kind error
	Err  error
}

func newQueryError(op string, err error) *QueryError {
	return &QueryError{Op: op, Kind: classify(err), Err: err}
}

func (e *QueryError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("storage %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

func classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return ErrUniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ErrForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return ErrCheckViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return ErrNotNullViolation
	}
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return ErrConstraint
	}
	return nil
}
