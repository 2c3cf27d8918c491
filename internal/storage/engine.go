// Package storage is the SQLite persistence substrate shared by the
// credential, ledger and budget services.
//
// Every operation opens its own connection, runs inside one transaction and
// closes the connection before returning. Nothing is held open between
// calls, so a failed operation never leaves a half-applied change behind.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	applog "finledger/internal/log"
)

const defaultBusyTimeout = 5 * time.Second

type Engine struct {
	path        string
	busyTimeout time.Duration
	open        func(ctx context.Context) (*sql.DB, error)
}

type Option func(*Engine)

// WithBusyTimeout sets how long a statement waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.busyTimeout = d
		}
	}
}

func New(path string, opts ...Option) *Engine {
	e := &Engine{path: path, busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(e)
	}
	e.open = e.openSQLite
	return e
}

// Path returns the storage file location.
func (e *Engine) Path() string {
	return e.path
}

// ErrInvalidPath reports a file path the driver would misread as DSN
// parameters.
var ErrInvalidPath = errors.New("path must not contain '?' or '#'")

func validPath(path string) error {
	if strings.ContainsAny(path, "?#") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

func (e *Engine) dsn() string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)",
		e.path, e.busyTimeout.Milliseconds())
}

func (e *Engine) openSQLite(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", e.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Result reports the effect of a write statement.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// WithTx runs fn as one unit of work: connect, begin, fn, then commit, or
// roll back if fn or the commit fails. Errors returned by fn are passed
// through untouched.
func (e *Engine) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	db, err := e.open(ctx)
	if err != nil {
		return newQueryError("open", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			slog.WarnContext(ctx, "Failed to close database handle",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldError, cerr)
		}
	}()

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return newQueryError("begin", err)
	}

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "Rollback failed",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldError, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return newQueryError("commit", err)
	}
	return nil
}

// Exec runs a single bound-parameter write in its own transaction.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	var res Result
	err := e.WithTx(ctx, func(tx *Tx) error {
		var err error
		res, err = tx.Exec(ctx, query, args...)
		return err
	})
	return res, err
}

// Query runs a read-only query and hands each row to scan.
func (e *Engine) Query(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	return e.WithTx(ctx, func(tx *Tx) error {
		return tx.Query(ctx, query, args, scan)
	})
}

// Tx is a transaction scoped to one WithTx call. Statements only take bound
// parameters.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, newQueryError("exec", err)
	}
	var out Result
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return Result{}, newQueryError("exec", err)
	}
	if out.LastInsertID, err = res.LastInsertId(); err != nil {
		return Result{}, newQueryError("exec", err)
	}
	return out, nil
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *Row {
	return &Row{row: t.tx.QueryRowContext(ctx, query, args...)}
}

func (t *Tx) Query(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return newQueryError("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return newQueryError("scan", err)
		}
	}
	if err := rows.Err(); err != nil {
		return newQueryError("query", err)
	}
	return nil
}

type Row struct {
	row *sql.Row
}

// Scan copies the row into dest. A missing row yields ErrNoRows unwrapped.
func (r *Row) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return newQueryError("query", err)
}
