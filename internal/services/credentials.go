package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// maxPasswordBytes is the bcrypt input limit; longer input would be
// compared on its prefix only.
const maxPasswordBytes = 72

// CredentialService registers users and verifies passwords. Only bcrypt
// hashes are stored; the salt is part of the hash.
type CredentialService struct {
	engine *storage.Engine
	cost   int
	now    func() time.Time

	dummyHash []byte
}

func NewCredentialService(engine *storage.Engine, cost int) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// The dummy hash uses the same cost as real ones so an unknown username
	// costs exactly one comparison.
	dummy, err := bcrypt.GenerateFromPassword([]byte("finledger-timing-equalizer"), cost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return &CredentialService{
		engine:    engine,
		cost:      cost,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register stores a new user. Both fields are trimmed and must be
// non-empty.
func (s *CredentialService) Register(ctx context.Context, username, password string) error {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if username == "" || password == "" {
		return &core.ValidationError{Field: "credentials", Err: core.ErrEmptyCredential}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return &core.ValidationError{Field: "password", Err: err}
	}
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.engine.Exec(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, hash)
	if errors.Is(err, storage.ErrUniqueViolation) {
		return core.ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered",
		applog.FieldComponent, applog.ComponentCredentials,
		applog.FieldOperation, applog.OpRegister,
		applog.FieldUsername, username)
	return nil
}

// Authenticate returns a session when password matches the stored hash.
// An unknown username and a wrong password both yield
// core.ErrInvalidCredentials, and both pay for one bcrypt comparison.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (core.Session, error) {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if len(password) > maxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password[:maxPasswordBytes]))
		return s.reject(ctx)
	}

	var hash []byte
	err := s.engine.WithTx(ctx, func(tx *storage.Tx) error {
		return tx.QueryRow(ctx, "SELECT password_hash FROM users WHERE username = ?", username).Scan(&hash)
	})
	switch {
	case errors.Is(err, storage.ErrNoRows):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return s.reject(ctx)
	case err != nil:
		return core.Session{}, fmt.Errorf("load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return s.reject(ctx)
	}

	session := core.NewSession(username, s.now())
	slog.InfoContext(ctx, "User authenticated",
		applog.FieldComponent, applog.ComponentCredentials,
		applog.FieldOperation, applog.OpAuthenticate,
		applog.FieldUsername, username,
		applog.FieldSessionID, session.ID())
	return session, nil
}

// Exists reports whether username is registered.
func (s *CredentialService) Exists(ctx context.Context, username string) (bool, error) {
	err := s.engine.WithTx(ctx, func(tx *storage.Tx) error {
		return requireUser(ctx, tx, username)
	})
	if errors.Is(err, core.ErrUnknownUser) {
		return false, nil
	}
	return err == nil, err
}

func (s *CredentialService) reject(ctx context.Context) (core.Session, error) {
	slog.WarnContext(ctx, "Authentication failed",
		applog.FieldComponent, applog.ComponentCredentials,
		applog.FieldOperation, applog.OpAuthenticate)
	return core.Session{}, core.ErrInvalidCredentials
}
