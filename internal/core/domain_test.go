package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"income", Income, true},
		{"EXPENSE", Expense, true},
		{" Income ", Income, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("%q expected ErrInvalidKind, got %v", tc.in, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-15", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-13-01", false},
		{"2024-1-5", false},
		{"15/01/2024", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.String() != tc.in {
				t.Fatalf("%q expected ok, got %v (err=%v)", tc.in, d, err)
			}
			continue
		}
		if field, ok := FieldOf(err); !ok || field != "date" {
			t.Fatalf("%q expected date validation error, got %v", tc.in, err)
		}
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	got := DateOf(time.Date(2024, 3, 1, 1, 30, 0, 0, loc))
	if got.String() != "2024-03-01" {
		t.Fatalf("expected local calendar day, got %s", got)
	}
}

func TestDateValidate(t *testing.T) {
	first, err := ParseDate("0001-01-01")
	if err != nil {
		t.Fatalf("ParseDate(0001-01-01) error = %v", err)
	}
	if err := first.Validate(); err != nil {
		t.Errorf("0001-01-01 should be a valid date: %v", err)
	}
	if err := NewDate(1, 1, 1).Validate(); err != nil {
		t.Errorf("NewDate(1, 1, 1) should be a valid date: %v", err)
	}
	if err := (Date{}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("unset date: got %v, want ErrInvalidDate", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Username:   "alice",
		Kind:       Income,
		Amount:     decimal.NewFromInt(10),
		Category:   "salary",
		OccurredOn: NewDate(2024, 1, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		field string
		mut   func(*Transaction)
	}{
		{"username", func(tx *Transaction) { tx.Username = " " }},
		{"kind", func(tx *Transaction) { tx.Kind = "gift" }},
		{"amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }},
		{"category", func(tx *Transaction) { tx.Category = "" }},
		{"date", func(tx *Transaction) { tx.OccurredOn = Date{} }},
	}
	for _, b := range bads {
		tx := good
		b.mut(&tx)
		field, ok := FieldOf(tx.Validate())
		if !ok || field != b.field {
			t.Fatalf("expected %s validation error, got %q", b.field, field)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Username: "alice", Category: "food", Limit: decimal.Zero}
	if err := b.Validate(); err != nil {
		t.Fatalf("zero limit should be allowed: %v", err)
	}
	b.Limit = decimal.NewFromInt(-5)
	if !errors.Is(b.Validate(), ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative limit")
	}
}

func TestIntegrityErrorsWrapClass(t *testing.T) {
	if !errors.Is(ErrDuplicateUsername, ErrIntegrity) || !errors.Is(ErrUnknownUser, ErrIntegrity) {
		t.Fatal("integrity errors must match ErrIntegrity")
	}
	if !errors.Is(ErrTransactionNotFound, ErrNotFound) || !errors.Is(ErrBudgetNotFound, ErrNotFound) {
		t.Fatal("not found errors must match ErrNotFound")
	}
	if ErrTransactionNotFound.Error() != "transaction not found" {
		t.Fatalf("unexpected message %q", ErrTransactionNotFound)
	}
}
