package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finledger/internal/storage"
)

var fixedNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

type fixture struct {
	engine      *storage.Engine
	credentials *CredentialService
	ledger      *LedgerService
	budgets     *BudgetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine := storage.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, engine.Initialize(context.Background()))

	f := &fixture{
		engine:      engine,
		credentials: NewCredentialService(engine, bcrypt.MinCost),
		ledger:      NewLedgerService(engine),
		budgets:     NewBudgetService(engine),
	}
	f.credentials.now = func() time.Time { return fixedNow }
	f.ledger.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) register(t *testing.T, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		require.NoError(t, f.credentials.Register(context.Background(), u, "secret-"+u))
	}
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	err := f.engine.Query(context.Background(), query, args, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	})
	require.NoError(t, err)
	return n
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
