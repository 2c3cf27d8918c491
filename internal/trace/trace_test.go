package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finledger/internal/core"
	applog "finledger/internal/log"
)

func jsonLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{
		Level:     slog.LevelDebug,
		Format:    applog.FormatJSON,
		Component: applog.ComponentCLI,
		Output:    buf,
	})
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestStart_AttachesCommandID(t *testing.T) {
	var buf bytes.Buffer
	ctx, finish := Start(context.Background(), jsonLogger(&buf), "add")

	id := GetCommandID(ctx)
	require.True(t, strings.HasPrefix(id, "cmd_"))
	require.Empty(t, GetCommandID(context.Background()))

	finish(nil)
	entry := lastEntry(t, &buf)
	require.Equal(t, "Command completed", entry["msg"])
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, id, entry[FieldCommandID])
	require.Equal(t, "add", entry[FieldCommand])
	require.Equal(t, true, entry["success"])
}

func TestStart_LevelFollowsOutcome(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, "WARN"},
		{"credentials", core.ErrInvalidCredentials, "WARN"},
		{"not found", core.ErrTransactionNotFound, "WARN"},
		{"failure", errors.New("disk full"), "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, finish := Start(context.Background(), jsonLogger(&buf), "report")
			finish(tt.err)

			entry := lastEntry(t, &buf)
			require.Equal(t, tt.level, entry["level"])
			require.Equal(t, false, entry["success"])
			require.Equal(t, tt.err.Error(), entry[applog.FieldError])
		})
	}
}

func TestStart_NamesRejectedField(t *testing.T) {
	var buf bytes.Buffer
	_, finish := Start(context.Background(), jsonLogger(&buf), "add")

	finish(&core.ValidationError{Field: "date", Err: core.ErrInvalidDate})

	entry := lastEntry(t, &buf)
	require.Equal(t, "date", entry[applog.FieldField])
}
