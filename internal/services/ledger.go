package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// LedgerService records income and expense transactions for a user.
type LedgerService struct {
	engine *storage.Engine
	now    func() time.Time
}

func NewLedgerService(engine *storage.Engine) *LedgerService {
	return &LedgerService{engine: engine, now: time.Now}
}

// AddTransaction parses raw field input and records it. An empty
// occurredOn means today. Each parse failure is a *core.ValidationError
// naming the rejected field.
func (s *LedgerService) AddTransaction(ctx context.Context, username, kind, amount, category, occurredOn string) (int64, error) {
	k, err := core.ParseKind(kind)
	if err != nil {
		return 0, err
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return 0, err
	}
	cat, err := core.ParseCategory(category)
	if err != nil {
		return 0, err
	}
	date := core.DateOf(s.now())
	if strings.TrimSpace(occurredOn) != "" {
		if date, err = core.ParseDate(occurredOn); err != nil {
			return 0, err
		}
	}

	return s.Record(ctx, core.Transaction{
		Username:   username,
		Kind:       k,
		Amount:     amt,
		Category:   cat,
		OccurredOn: date,
	})
}

// Record stores a typed transaction after checking that its user exists.
func (s *LedgerService) Record(ctx context.Context, t core.Transaction) (int64, error) {
	t.Category = strings.TrimSpace(t.Category)
	if err := t.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.engine.WithTx(ctx, func(tx *storage.Tx) error {
		if err := requireUser(ctx, tx, t.Username); err != nil {
			return err
		}
		res, err := tx.Exec(ctx,
			`INSERT INTO transactions (username, kind, amount, category, occurred_on)
			 VALUES (?, ?, ?, ?, ?)`,
			t.Username, string(t.Kind), t.Amount.String(), t.Category, t.OccurredOn.String())
		if err != nil {
			return err
		}
		id = res.LastInsertID
		return nil
	})
	if err != nil {
		return 0, mapIntegrity(err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpCreate,
		applog.FieldTransactionID, id,
		applog.FieldUsername, t.Username,
		applog.FieldKind, t.Kind,
		applog.FieldAmount, t.Amount.String(),
		applog.FieldCategory, t.Category,
		applog.FieldOccurredOn, t.OccurredOn.String())
	return id, nil
}

// UpdateTransaction changes the amount and category of transaction id.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, amount decimal.Decimal, category string) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	cat, err := core.ParseCategory(category)
	if err != nil {
		return err
	}

	res, err := s.engine.Exec(ctx,
		"UPDATE transactions SET amount = ?, category = ? WHERE id = ?",
		amount.String(), cat, id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return core.ErrTransactionNotFound
	}

	slog.InfoContext(ctx, "Transaction updated",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldTransactionID, id,
		applog.FieldAmount, amount.String(),
		applog.FieldCategory, cat)
	return nil
}

// DeleteTransaction removes transaction id. Deleting an id that does not
// exist changes nothing and reports core.ErrTransactionNotFound.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.engine.Exec(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return core.ErrTransactionNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTransactionID, id)
	return nil
}

// GetTransaction loads a single transaction.
func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	err := s.engine.WithTx(ctx, func(tx *storage.Tx) error {
		var kind, occurredOn string
		err := tx.QueryRow(ctx,
			"SELECT id, username, kind, amount, category, occurred_on FROM transactions WHERE id = ?", id).
			Scan(&t.ID, &t.Username, &kind, &t.Amount, &t.Category, &occurredOn)
		if err != nil {
			return err
		}
		return fillTransaction(&t, kind, occurredOn)
	})
	if errors.Is(err, storage.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns the user's transactions in p, oldest first.
func (s *LedgerService) ListTransactions(ctx context.Context, username string, p core.Period) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.engine.Query(ctx,
		`SELECT id, username, kind, amount, category, occurred_on
		 FROM transactions
		 WHERE username = ? AND occurred_on BETWEEN ? AND ?
		 ORDER BY occurred_on, id`,
		[]any{username, p.Start.String(), p.End.String()},
		func(rows *sql.Rows) error {
			var (
				t                core.Transaction
				kind, occurredOn string
			)
			if err := rows.Scan(&t.ID, &t.Username, &kind, &t.Amount, &t.Category, &occurredOn); err != nil {
				return err
			}
			if err := fillTransaction(&t, kind, occurredOn); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// SumInRange returns income minus expense for username between start and
// end inclusive. No matching rows sum to zero.
func (s *LedgerService) SumInRange(ctx context.Context, username string, start, end core.Date) (decimal.Decimal, error) {
	totals, err := s.Totals(ctx, username, core.Period{Start: start, End: end})
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Net(), nil
}

// Totals splits the period's activity into income and expense.
func (s *LedgerService) Totals(ctx context.Context, username string, p core.Period) (core.Totals, error) {
	totals := core.Totals{Period: p, Income: decimal.Zero, Expense: decimal.Zero}
	err := s.engine.Query(ctx,
		`SELECT kind, amount FROM transactions
		 WHERE username = ? AND occurred_on BETWEEN ? AND ?`,
		[]any{username, p.Start.String(), p.End.String()},
		func(rows *sql.Rows) error {
			var (
				kind   string
				amount decimal.Decimal
			)
			if err := rows.Scan(&kind, &amount); err != nil {
				return err
			}
			totals.Add(core.Kind(kind), amount)
			return nil
		})
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum transactions: %w", err)
	}

	slog.DebugContext(ctx, "Totals computed",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpReport,
		applog.FieldUsername, username,
		applog.FieldPeriodStart, p.Start.String(),
		applog.FieldPeriodEnd, p.End.String())
	return totals, nil
}

// Report computes totals for the current monthly or yearly period.
func (s *LedgerService) Report(ctx context.Context, username, reportType string) (core.Totals, error) {
	p, err := core.ReportRange(reportType, s.now())
	if err != nil {
		return core.Totals{}, err
	}
	return s.Totals(ctx, username, p)
}

// CategoryTotals sums expenses per category in p, ordered by category.
func (s *LedgerService) CategoryTotals(ctx context.Context, username string, p core.Period) ([]core.CategoryAmount, error) {
	var out []core.CategoryAmount
	err := s.engine.Query(ctx,
		`SELECT category, amount FROM transactions
		 WHERE username = ? AND kind = ? AND occurred_on BETWEEN ? AND ?
		 ORDER BY category`,
		[]any{username, string(core.Expense), p.Start.String(), p.End.String()},
		func(rows *sql.Rows) error {
			var (
				category string
				amount   decimal.Decimal
			)
			if err := rows.Scan(&category, &amount); err != nil {
				return err
			}
			if n := len(out); n > 0 && out[n-1].Name == category {
				out[n-1].Amount = out[n-1].Amount.Add(amount)
				return nil
			}
			out = append(out, core.CategoryAmount{Name: category, Amount: amount})
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("sum categories: %w", err)
	}
	return out, nil
}

func fillTransaction(t *core.Transaction, kind, occurredOn string) error {
	t.Kind = core.Kind(kind)
	date, err := core.ParseDate(occurredOn)
	if err != nil {
		return fmt.Errorf("stored transaction %d: %w", t.ID, err)
	}
	t.OccurredOn = date
	return nil
}
