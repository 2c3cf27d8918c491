package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	applog "finledger/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Initialize creates the storage file and schema if they are missing. It is
// safe to call on every start. Any failure is an *InitError.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := validPath(e.path); err != nil {
		return &InitError{Path: e.path, Err: err}
	}
	if dir := filepath.Dir(e.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &InitError{Path: e.path, Err: fmt.Errorf("create db directory: %w", err)}
		}
	}

	version, err := e.runMigrations(ctx)
	if err != nil {
		return &InitError{Path: e.path, Err: err}
	}

	slog.InfoContext(ctx, "Storage initialized",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldPath, e.path,
		applog.FieldSchemaVersion, version)
	return nil
}

func (e *Engine) runMigrations(ctx context.Context) (uint, error) {
	// Migrations get their own connection, closed by m.Close.
	migrateDB, err := e.open(ctx)
	if err != nil {
		return 0, err
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
