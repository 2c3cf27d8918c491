// Package cli holds the process setup and subcommands of cmd/finledger.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"

	"finledger/internal/app"
	"finledger/internal/config"
	"finledger/internal/core"
	applog "finledger/internal/log"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitInvalid = 2
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and makes it the slog
// default. Unknown levels fall back to info.
func SetupLogger(cfg config.Log) *applog.Logger {
	level, err := applog.ParseLevel(cfg.Level)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.Format,
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info level", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", applog.FieldError, err)
		os.Exit(ExitFailure)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(ExitFailure)
	}
	return cfg
}

// InitApp opens the ledger storage. Returns the app or exits the process
// with ExitFailure when storage cannot be initialized.
func InitApp(ctx context.Context, logger *applog.Logger, cfg *config.Config) *app.App {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", applog.FieldError, err, applog.FieldPath, cfg.Database.Path)
		os.Exit(ExitFailure)
	}
	return a
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage), errors.Is(err, core.ErrValidation):
		return ExitInvalid
	default:
		return ExitFailure
	}
}
