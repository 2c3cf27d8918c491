// Package app wires the storage engine and the ledger services together.
package app

import (
	"context"
	"fmt"

	"finledger/internal/config"
	applog "finledger/internal/log"
	"finledger/internal/services"
	"finledger/internal/storage"
)

// App holds the services sharing one storage engine.
type App struct {
	Engine      *storage.Engine
	Credentials *services.CredentialService
	Ledger      *services.LedgerService
	Budgets     *services.BudgetService

	backupPath string
}

// New initializes storage at cfg.Database.Path and builds the services on
// top of it. A storage failure is returned as a *storage.InitError.
func New(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentApp)

	engine := storage.New(cfg.Database.Path, storage.WithBusyTimeout(cfg.Database.BusyTimeout))
	if err := engine.Initialize(ctx); err != nil {
		return nil, err
	}

	a := &App{
		Engine:      engine,
		Credentials: services.NewCredentialService(engine, cfg.BcryptCost),
		Ledger:      services.NewLedgerService(engine),
		Budgets:     services.NewBudgetService(engine),
		backupPath:  cfg.Database.BackupPath,
	}

	logger.Info("Initialized ledger",
		applog.FieldPath, cfg.Database.Path,
		applog.FieldBackupPath, cfg.Database.BackupPath)
	return a, nil
}

// Backup snapshots the database to dst, or to the configured backup path
// when dst is empty.
func (a *App) Backup(ctx context.Context, dst string) (string, error) {
	if dst == "" {
		dst = a.backupPath
	}
	if dst == "" {
		return "", fmt.Errorf("backup: no destination configured")
	}
	return dst, a.Engine.Snapshot(ctx, dst)
}

// Restore replaces the database with src, or with the configured backup
// when src is empty.
func (a *App) Restore(ctx context.Context, src string) (string, error) {
	if src == "" {
		src = a.backupPath
	}
	if src == "" {
		return "", fmt.Errorf("restore: no source configured")
	}
	return src, a.Engine.Restore(ctx, src)
}
