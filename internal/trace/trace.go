// Package trace tags each CLI command with an id and logs its outcome.
package trace

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finledger/internal/core"
	applog "finledger/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// CommandIDKey is the context key for the command id
	CommandIDKey ContextKey = "command_id"

	FieldCommandID = "command_id"
	FieldCommand   = "command"
)

// Start attaches a fresh command id to ctx and logs the start of command.
// The returned finish logs completion at a level matching err.
func Start(ctx context.Context, logger *applog.Logger, command string) (context.Context, func(error)) {
	start := time.Now()
	id := GenerateCommandID()
	ctx = context.WithValue(ctx, CommandIDKey, id)

	logger.DebugContext(ctx, "Command started",
		FieldCommandID, id,
		FieldCommand, command)

	return ctx, func(err error) {
		duration := time.Since(start)

		level := slog.LevelInfo
		switch {
		case err == nil:
		case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, core.ErrNotFound):
			level = slog.LevelWarn
		default:
			level = slog.LevelError
		}

		args := []any{
			applog.FieldComponent, logger.Component(),
			FieldCommandID, id,
			FieldCommand, command,
			"duration_ms", duration.Milliseconds(),
			"success", err == nil,
		}
		if err != nil {
			args = append(args, applog.FieldError, err)
		}
		if field, ok := core.FieldOf(err); ok {
			args = append(args, applog.FieldField, field)
		}
		logger.Log(ctx, level, "Command completed", args...)
	}
}

// GenerateCommandID creates a unique id for tracing a command
func GenerateCommandID() string {
	return "cmd_" + uuid.NewString()
}

// GetCommandID extracts the command id from context
func GetCommandID(ctx context.Context) string {
	if id, ok := ctx.Value(CommandIDKey).(string); ok {
		return id
	}
	return ""
}
