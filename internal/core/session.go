package core

import (
	"time"

	"github.com/google/uuid"
)

// Session is the handle returned by a successful authentication. Callers
// scope ledger and budget operations with Username and drop the value to
// log out.
type Session struct {
	id       uuid.UUID
	username string
	issuedAt time.Time
}

func NewSession(username string, now time.Time) Session {
	return Session{id: uuid.New(), username: username, issuedAt: now}
}

func (s Session) ID() string          { return s.id.String() }
func (s Session) Username() string    { return s.username }
func (s Session) IssuedAt() time.Time { return s.issuedAt }

// Valid is false for the zero Session.
func (s Session) Valid() bool {
	return s.id != uuid.Nil && s.username != ""
}
