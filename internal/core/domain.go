package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and user-facing date format.
const DateLayout = "2006-01-02"

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	Kind string

	// Date is a calendar day in UTC; the time part is always midnight.
	// The zero Date is unset; 0001-01-01 built through NewDate or ParseDate
	// is a valid day.
	Date struct {
		time.Time
		set bool
	}

	Transaction struct {
		ID         int64
		Username   string
		Kind       Kind
		Amount     decimal.Decimal
		Category   string
		OccurredOn Date
	}

	Budget struct {
		ID       int64
		Username string
		Category string
		Limit    decimal.Decimal
	}
)

// ParseKind accepts income or expense in any letter case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", invalid("kind", ErrInvalidKind)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), set: true}
}

// DateOf truncates t to its calendar day, keeping t's wall-clock date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a strict YYYY-MM-DD date. Out-of-range days such as
// 2023-02-29 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, invalid("date", ErrInvalidDate)
	}
	return Date{Time: t, set: true}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if !d.set {
		return invalid("date", ErrInvalidDate)
	}
	return nil
}

// ParseCategory trims the category and rejects blanks.
func ParseCategory(s string) (string, error) {
	c := strings.TrimSpace(s)
	if c == "" {
		return "", invalid("category", ErrEmptyCategory)
	}
	return c, nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Username) == "" {
		return invalid("username", ErrEmptyCredential)
	}
	if !t.Kind.Valid() {
		return invalid("kind", ErrInvalidKind)
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if _, err := ParseCategory(t.Category); err != nil {
		return err
	}
	return t.OccurredOn.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Username) == "" {
		return invalid("username", ErrEmptyCredential)
	}
	if _, err := ParseCategory(b.Category); err != nil {
		return err
	}
	return ValidateAmount(b.Limit)
}
