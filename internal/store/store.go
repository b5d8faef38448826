package store

import (
	"context"
	"time"
)

// Session is one connection's stay in a registry slot.
type Session struct {
	ID          string
	Identity    int
	Nickname    string
	OpenedAt    time.Time
	ClosedAt    *time.Time // nil while connected
	CloseReason string
}

// SessionStore journals connection sessions.
type SessionStore interface {
	// OpenSession records a newly accepted connection.
	OpenSession(ctx context.Context, s Session) error
	// CloseSession stamps the end of a session with the last nickname it used.
	CloseSession(ctx context.Context, id, nickname, reason string, at time.Time) error
	// ListSessions returns up to limit sessions, most recently opened first.
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	Close() error
}

// Nop is a SessionStore that keeps nothing.
type Nop struct{}

func (Nop) OpenSession(context.Context, Session) error { return nil }

func (Nop) CloseSession(context.Context, string, string, string, time.Time) error { return nil }

func (Nop) ListSessions(context.Context, int) ([]Session, error) { return nil, nil }

func (Nop) Close() error { return nil }
