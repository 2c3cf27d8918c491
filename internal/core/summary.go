package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Totals splits a period's activity by kind.
type Totals struct {
	Period  Period
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Add folds one transaction amount into the totals.
func (t *Totals) Add(kind Kind, amount decimal.Decimal) {
	switch kind {
	case Income:
		t.Income = t.Income.Add(amount)
	case Expense:
		t.Expense = t.Expense.Add(amount)
	}
}

// BudgetStatus compares a category limit with what was spent in a period.
type BudgetStatus struct {
	Category string
	Period   Period
	Limit    decimal.Decimal
	Spent    decimal.Decimal
}

func (s BudgetStatus) Remaining() decimal.Decimal {
	return s.Limit.Sub(s.Spent)
}

func (s BudgetStatus) Exceeded() bool {
	return s.Spent.GreaterThan(s.Limit)
}
