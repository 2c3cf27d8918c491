package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finledger/internal/app"
	"finledger/internal/config"
	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

type harness struct {
	runner *Runner
	out    *bytes.Buffer
	env    map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Database: config.Database{
			Path:        filepath.Join(dir, "ledger.db"),
			BackupPath:  filepath.Join(dir, "ledger.backup.db"),
			BusyTimeout: time.Second,
		},
		Log:        config.Log{Level: "info", Format: applog.FormatText},
		BcryptCost: bcrypt.MinCost,
	}
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	a, err := app.New(context.Background(), cfg, logger)
	require.NoError(t, err)

	h := &harness{out: &bytes.Buffer{}, env: map[string]string{}}
	h.runner = &Runner{
		App:    a,
		Out:    h.out,
		Err:    &bytes.Buffer{},
		Getenv: func(k string) string { return h.env[k] },
		Now:    func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) },
		Logger: logger,
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	err := h.runner.Run(context.Background(), args)
	return h.out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err)
	return out
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"usage", fmt.Errorf("%w: missing command", ErrUsage), ExitInvalid},
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, ExitInvalid},
		{"credentials", core.ErrInvalidCredentials, ExitFailure},
		{"not found", core.ErrBudgetNotFound, ExitFailure},
		{"storage init", &storage.InitError{Path: "x", Err: errors.New("boom")}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRunner_RegisterAddReport(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "register", "-user", "alice", "-password", "pw123")
	require.Equal(t, "registered alice\n", out)

	out = h.mustRun(t, "add", "-user", "alice", "-password", "pw123",
		"-kind", "income", "-amount", "1000", "-category", "salary", "-date", "2024-01-15")
	require.Equal(t, "added transaction 1\n", out)

	h.env[PasswordEnv] = "pw123"
	h.mustRun(t, "add", "-user", "alice",
		"-kind", "expense", "-amount", "200", "-category", "food", "-date", "2024-01-20")

	out = h.mustRun(t, "list", "-user", "alice")
	require.Contains(t, out, "1\t2024-01-15\tincome\t1000.00\tsalary\n")
	require.Contains(t, out, "2\t2024-01-20\texpense\t200.00\tfood\n")

	out = h.mustRun(t, "report", "-user", "alice", "-type", "yearly", "-categories")
	require.Contains(t, out, "period\t2024-01-01..")
	require.Contains(t, out, "income\t1000.00\n")
	require.Contains(t, out, "expense\t200.00\n")
	require.Contains(t, out, "  food\t200.00\n")
}

func TestRunner_ValidationExitsWithInvalid(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "register", "-user", "alice", "-password", "pw")

	_, err := h.run(t, "add", "-user", "alice", "-password", "pw",
		"-kind", "expense", "-amount", "abc", "-category", "food")

	require.ErrorIs(t, err, core.ErrInvalidAmount)
	require.Equal(t, ExitInvalid, ExitCode(err))
	require.Contains(t, err.Error(), "invalid amount")
}

func TestRunner_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "register", "-user", "alice", "-password", "pw")

	_, err := h.run(t, "report", "-user", "alice", "-password", "nope")

	require.ErrorIs(t, err, core.ErrInvalidCredentials)
	require.Equal(t, ExitFailure, ExitCode(err))
}

func TestRunner_UsageErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"transfer"}},
		{"unknown flag", []string{"backup", "-bogus"}},
		{"stray argument", []string{"backup", "extra"}},
		{"budget without action", []string{"budget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, tt.args...)
			require.ErrorIs(t, err, ErrUsage)
			require.Equal(t, ExitInvalid, ExitCode(err))
		})
	}
}

func TestRunner_UpdateAndDeleteAreScopedToOwner(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "register", "-user", "alice", "-password", "pa")
	h.mustRun(t, "register", "-user", "bob", "-password", "pb")
	h.mustRun(t, "add", "-user", "alice", "-password", "pa",
		"-kind", "expense", "-amount", "20", "-category", "food", "-date", "2024-01-03")

	_, err := h.run(t, "update", "-user", "bob", "-password", "pb", "-id", "1", "-amount", "1", "-category", "x")
	require.ErrorIs(t, err, core.ErrTransactionNotFound)
	_, err = h.run(t, "delete", "-user", "bob", "-password", "pb", "-id", "1")
	require.ErrorIs(t, err, core.ErrTransactionNotFound)

	out := h.mustRun(t, "update", "-user", "alice", "-password", "pa", "-id", "1", "-amount", "25,5", "-category", "groceries")
	require.Equal(t, "updated transaction 1\n", out)

	tx, err := h.runner.App.Ledger.GetTransaction(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "groceries", tx.Category)
	require.Equal(t, "25.5", tx.Amount.String())

	h.mustRun(t, "delete", "-user", "alice", "-password", "pa", "-id", "1")
	_, err = h.run(t, "delete", "-user", "alice", "-password", "pa", "-id", "1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRunner_Budget(t *testing.T) {
	h := newHarness(t)
	h.env[PasswordEnv] = "pw"
	h.mustRun(t, "register", "-user", "alice")

	out := h.mustRun(t, "budget", "get", "-user", "alice", "-category", "food")
	require.Equal(t, "no budget for food\n", out)

	h.mustRun(t, "budget", "set", "-user", "alice", "-category", "food", "-amount", "100")
	h.mustRun(t, "budget", "set", "-user", "alice", "-category", "food", "-amount", "150")
	out = h.mustRun(t, "budget", "get", "-user", "alice", "-category", "food")
	require.Equal(t, "budget food\t150.00\n", out)

	h.mustRun(t, "add", "-user", "alice", "-kind", "expense", "-amount", "160", "-category", "food", "-date", "2024-01-10")
	out = h.mustRun(t, "budget", "status", "-user", "alice", "-category", "food")
	require.Equal(t, "food\tlimit 150.00\tspent 160.00\tremaining -10.00\texceeded\n", out)

	out = h.mustRun(t, "budget", "list", "-user", "alice")
	require.Equal(t, "food\t150.00\n", out)

	h.mustRun(t, "budget", "delete", "-user", "alice", "-category", "food")
	_, err := h.run(t, "budget", "update", "-user", "alice", "-category", "food", "-amount", "10")
	require.ErrorIs(t, err, core.ErrBudgetNotFound)

	_, err = h.run(t, "budget", "freeze", "-user", "alice")
	require.ErrorIs(t, err, ErrUsage)
}

func TestRunner_BackupRestore(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "register", "-user", "alice", "-password", "pw")

	snapshot := filepath.Join(t.TempDir(), "snap.db")
	out := h.mustRun(t, "backup", "-to", snapshot)
	require.Equal(t, "backup written to "+snapshot+"\n", out)

	h.mustRun(t, "register", "-user", "bob", "-password", "pw")

	out = h.mustRun(t, "restore", "-from", snapshot)
	require.Equal(t, "restored from "+snapshot+"\n", out)

	_, err := h.run(t, "report", "-user", "bob", "-password", "pw")
	require.ErrorIs(t, err, core.ErrInvalidCredentials)
	h.mustRun(t, "report", "-user", "alice", "-password", "pw")
}
