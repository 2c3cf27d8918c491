package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	applog "finledger/internal/log"
)

// ErrNotLedgerSnapshot reports a restore source that is a SQLite file but
// not a ledger database.
var ErrNotLedgerSnapshot = errors.New("not a ledger snapshot")

// Snapshot writes a consistent copy of the storage file to dst, replacing
// any previous snapshot there.
func (e *Engine) Snapshot(ctx context.Context, dst string) error {
	if err := validPath(dst); err != nil {
		return err
	}
	if dir := filepath.Dir(dst); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	tmp := dst + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}

	db, err := e.open(ctx)
	if err != nil {
		return newQueryError("open", err)
	}
	defer db.Close()

	// VACUUM cannot run inside a transaction.
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", tmp); err != nil {
		return newQueryError("snapshot", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("move snapshot into place: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot created",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpSnapshot,
		applog.FieldPath, dst)
	return nil
}

// Restore replaces the storage file with the snapshot at src and makes sure
// the schema is current afterwards. The snapshot is checked before anything
// is overwritten.
func (e *Engine) Restore(ctx context.Context, src string) error {
	if err := validPath(src); err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	if err := checkSnapshot(ctx, src); err != nil {
		return err
	}

	if dir := filepath.Dir(e.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	tmp := e.path + ".restore"
	if err := copyFile(src, tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("copy snapshot: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if err := os.Remove(e.path + suffix); err != nil && !os.IsNotExist(err) {
			os.Remove(tmp)
			return fmt.Errorf("remove %s file: %w", suffix, err)
		}
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("move snapshot into place: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot restored",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpRestore,
		applog.FieldPath, src)

	return e.Initialize(ctx)
}

func checkSnapshot(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("check snapshot: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("check snapshot: %s", result)
	}

	var tables int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?, ?, ?, ?)`,
		"schema_migrations", "users", "transactions", "budgets").Scan(&tables)
	if err != nil {
		return fmt.Errorf("check snapshot: %w", err)
	}
	if tables != 4 {
		return fmt.Errorf("%w: %s", ErrNotLedgerSnapshot, path)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
