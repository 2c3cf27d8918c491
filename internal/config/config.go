package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"golang.org/x/crypto/bcrypt"

	applog "finledger/internal/log"
)

type Config struct {
	Database Database
	Log      Log

	// Password hashing
	BcryptCost int `env:"LEDGER_BCRYPT_COST" envDefault:"10"`
}

type Database struct {
	Path        string        `env:"LEDGER_DB_PATH" envDefault:"./data/ledger.db"`
	BackupPath  string        `env:"LEDGER_BACKUP_PATH" envDefault:"./data/ledger.backup.db"`
	BusyTimeout time.Duration `env:"LEDGER_BUSY_TIMEOUT" envDefault:"5s"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from vars instead of the environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch path := strings.TrimSpace(c.Database.Path); {
	case path == "":
		errors = append(errors, "database path cannot be empty")
	case path == ":memory:" || strings.HasPrefix(path, "file::memory:"):
		errors = append(errors, "in-memory database is not supported: every operation opens its own connection")
	case strings.ContainsAny(path, "?#"):
		errors = append(errors, fmt.Sprintf("invalid database path '%s': must not contain '?' or '#'", path))
	}
	if strings.ContainsAny(c.Database.BackupPath, "?#") {
		errors = append(errors, fmt.Sprintf("invalid backup path '%s': must not contain '?' or '#'", c.Database.BackupPath))
	}

	if c.Database.BackupPath != "" && c.Database.Path != "" &&
		filepath.Clean(c.Database.BackupPath) == filepath.Clean(c.Database.Path) {
		errors = append(errors, fmt.Sprintf("backup path '%s' must differ from the database path", c.Database.BackupPath))
	}

	if c.Database.BusyTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid busy timeout %v: must not be negative", c.Database.BusyTimeout))
	} else if c.Database.BusyTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid busy timeout %v: must be at most 1 minute", c.Database.BusyTimeout))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d",
			c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	if _, err := applog.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.Log.Level))
	}

	validFormats := []string{applog.FormatText, applog.FormatJSON}
	isValidFormat := false
	for _, format := range validFormats {
		if c.Log.Format == format {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.Log.Format, validFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
