package core

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the services matches exactly one of
// these with errors.Is, except storage failures which surface as
// *storage.QueryError or *storage.InitError.
var (
	ErrValidation         = errors.New("validation error")
	ErrIntegrity          = errors.New("integrity error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

var (
	ErrInvalidKind       = errors.New("kind must be income or expense")
	ErrInvalidAmount     = errors.New("amount must be a non-negative number")
	ErrInvalidDate       = errors.New("date must be a valid YYYY-MM-DD calendar date")
	ErrEmptyCategory     = errors.New("category cannot be empty")
	ErrEmptyCredential   = errors.New("username and password cannot be empty")
	ErrInvalidPeriod     = errors.New("end date is before start date")
	ErrInvalidReportType = errors.New("report type must be monthly or yearly")
)

var (
	ErrDuplicateUsername = fmt.Errorf("%w: username already exists", ErrIntegrity)
	ErrUnknownUser       = fmt.Errorf("%w: user does not exist", ErrIntegrity)
)

var (
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrBudgetNotFound      = fmt.Errorf("budget %w", ErrNotFound)
)

// ValidationError reports which input field was rejected so a caller can
// re-prompt for that field only.
type ValidationError struct {
	Field string
	Err   error
}

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// FieldOf returns the rejected field name if err is a validation error.
func FieldOf(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field, true
	}
	return "", false
}
