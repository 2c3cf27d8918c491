package services

import (
	"context"
	"errors"

	"finledger/internal/core"
	"finledger/internal/storage"
)

// requireUser fails with core.ErrUnknownUser unless username is registered.
// It runs inside the caller's unit of work so the check and the write that
// depends on it commit together.
func requireUser(ctx context.Context, tx *storage.Tx, username string) error {
	var one int
	err := tx.QueryRow(ctx, "SELECT 1 FROM users WHERE username = ?", username).Scan(&one)
	if errors.Is(err, storage.ErrNoRows) {
		return core.ErrUnknownUser
	}
	return err
}

// mapIntegrity turns a storage foreign-key failure into the domain error.
func mapIntegrity(err error) error {
	if errors.Is(err, storage.ErrForeignKeyViolation) {
		return core.ErrUnknownUser
	}
	return err
}
