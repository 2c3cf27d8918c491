package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// BudgetService keeps one spending limit per user and category.
type BudgetService struct {
	engine *storage.Engine
}

func NewBudgetService(engine *storage.Engine) *BudgetService {
	return &BudgetService{engine: engine}
}

// SetBudget creates the budget or replaces its limit. The upsert is a single
// statement on the (username, category) unique key.
func (s *BudgetService) SetBudget(ctx context.Context, username, category string, limit decimal.Decimal) error {
	b, err := newBudget(username, category, limit)
	if err != nil {
		return err
	}

	err = s.engine.WithTx(ctx, func(tx *storage.Tx) error {
		if err := requireUser(ctx, tx, b.Username); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO budgets (username, category, limit_amount)
			 VALUES (?, ?, ?)
			 ON CONFLICT (username, category) DO UPDATE
			 SET limit_amount = excluded.limit_amount,
			     updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
			b.Username, b.Category, b.Limit.String())
		return err
	})
	if err != nil {
		return mapIntegrity(err)
	}

	slog.InfoContext(ctx, "Budget set",
		applog.FieldComponent, applog.ComponentBudget,
		applog.FieldOperation, applog.OpUpsert,
		applog.FieldUsername, b.Username,
		applog.FieldCategory, b.Category,
		applog.FieldAmount, b.Limit.String())
	return nil
}

// UpdateBudget changes an existing limit; it never creates one.
func (s *BudgetService) UpdateBudget(ctx context.Context, username, category string, limit decimal.Decimal) error {
	b, err := newBudget(username, category, limit)
	if err != nil {
		return err
	}

	res, err := s.engine.Exec(ctx,
		`UPDATE budgets
		 SET limit_amount = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		 WHERE username = ? AND category = ?`,
		b.Limit.String(), b.Username, b.Category)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if res.RowsAffected == 0 {
		return core.ErrBudgetNotFound
	}

	slog.InfoContext(ctx, "Budget updated",
		applog.FieldComponent, applog.ComponentBudget,
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldUsername, b.Username,
		applog.FieldCategory, b.Category,
		applog.FieldAmount, b.Limit.String())
	return nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, username, category string) error {
	cat, err := core.ParseCategory(category)
	if err != nil {
		return err
	}

	res, err := s.engine.Exec(ctx,
		"DELETE FROM budgets WHERE username = ? AND category = ?",
		username, cat)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if res.RowsAffected == 0 {
		return core.ErrBudgetNotFound
	}

	slog.InfoContext(ctx, "Budget deleted",
		applog.FieldComponent, applog.ComponentBudget,
		applog.FieldOperation, applog.OpDelete,
		applog.FieldUsername, username,
		applog.FieldCategory, cat)
	return nil
}

// GetBudget returns the limit and whether one is set.
func (s *BudgetService) GetBudget(ctx context.Context, username, category string) (decimal.Decimal, bool, error) {
	cat, err := core.ParseCategory(category)
	if err != nil {
		return decimal.Zero, false, err
	}

	var limit decimal.Decimal
	err = s.engine.WithTx(ctx, func(tx *storage.Tx) error {
		return selectLimit(ctx, tx, username, cat, &limit)
	})
	if errors.Is(err, storage.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get budget: %w", err)
	}
	return limit, true, nil
}

// ListBudgets returns every budget of username ordered by category.
func (s *BudgetService) ListBudgets(ctx context.Context, username string) ([]core.Budget, error) {
	var out []core.Budget
	err := s.engine.Query(ctx,
		`SELECT id, username, category, limit_amount
		 FROM budgets WHERE username = ? ORDER BY category`,
		[]any{username},
		func(rows *sql.Rows) error {
			var b core.Budget
			if err := rows.Scan(&b.ID, &b.Username, &b.Category, &b.Limit); err != nil {
				return err
			}
			out = append(out, b)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

// Status compares the category limit with expenses recorded in p. Both are
// read in the same unit of work.
func (s *BudgetService) Status(ctx context.Context, username, category string, p core.Period) (core.BudgetStatus, error) {
	cat, err := core.ParseCategory(category)
	if err != nil {
		return core.BudgetStatus{}, err
	}

	status := core.BudgetStatus{Category: cat, Period: p, Spent: decimal.Zero}
	err = s.engine.WithTx(ctx, func(tx *storage.Tx) error {
		if err := selectLimit(ctx, tx, username, cat, &status.Limit); err != nil {
			return err
		}
		return tx.Query(ctx,
			`SELECT amount FROM transactions
			 WHERE username = ? AND kind = ? AND category = ? AND occurred_on BETWEEN ? AND ?`,
			[]any{username, string(core.Expense), cat, p.Start.String(), p.End.String()},
			func(rows *sql.Rows) error {
				var amount decimal.Decimal
				if err := rows.Scan(&amount); err != nil {
					return err
				}
				status.Spent = status.Spent.Add(amount)
				return nil
			})
	})
	if errors.Is(err, storage.ErrNoRows) {
		return core.BudgetStatus{}, core.ErrBudgetNotFound
	}
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("budget status: %w", err)
	}
	return status, nil
}

func newBudget(username, category string, limit decimal.Decimal) (core.Budget, error) {
	cat, err := core.ParseCategory(category)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{Username: username, Category: cat, Limit: limit}
	return b, b.Validate()
}

func selectLimit(ctx context.Context, tx *storage.Tx, username, category string, limit *decimal.Decimal) error {
	return tx.QueryRow(ctx,
		"SELECT limit_amount FROM budgets WHERE username = ? AND category = ?",
		username, category).Scan(limit)
}
