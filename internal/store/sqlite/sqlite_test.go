package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-unix/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	opened := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	if err := s.OpenSession(ctx, store.Session{ID: "s1", Identity: 3, Nickname: "Client 3", OpenedAt: opened}); err != nil {
		t.Fatalf("open session: %v", err)
	}

	sessions, err := s.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ClosedAt != nil || sessions[0].Identity != 3 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	closed := opened.Add(time.Minute)
	if err := s.CloseSession(ctx, "s1", "alice", "quit", closed); err != nil {
		t.Fatalf("close session: %v", err)
	}

	sessions, err = s.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	got := sessions[0]
	if got.Nickname != "alice" || got.CloseReason != "quit" || got.ClosedAt == nil {
		t.Fatalf("session not closed: %+v", got)
	}
	if !got.ClosedAt.Equal(closed) {
		t.Fatalf("closed_at = %v, want %v", got.ClosedAt, closed)
	}
}

func TestCloseUnknownSession(t *testing.T) {
	s := newTestStore(t)

	err := s.CloseSession(context.Background(), "missing", "x", "eof", time.Now())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessionsNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		t.Logf("Opening session %s", id)
		if err := s.OpenSession(ctx, store.Session{ID: id, Identity: i, Nickname: id, OpenedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("open %s: %v", id, err)
		}
	}

	tests := []struct {
		name     string
		limit    int
		expected []string
	}{
		{name: "limit 2", limit: 2, expected: []string{"d", "c"}},
		{name: "limit above count", limit: 10, expected: []string{"d", "c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, err := s.ListSessions(ctx, tt.limit)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(sessions) != len(tt.expected) {
				t.Fatalf("expected %d sessions, got %d", len(tt.expected), len(sessions))
			}
			for i, sess := range sessions {
				if sess.ID != tt.expected[i] {
					t.Errorf("at %d: expected %s, got %s", i, tt.expected[i], sess.ID)
				}
			}
		})
	}
}

func TestNewIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/journal.db"

	first, err := New(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.OpenSession(context.Background(), store.Session{ID: "keep", Nickname: "n", OpenedAt: time.Now()}); err != nil {
		t.Fatalf("open session: %v", err)
	}
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	sessions, err := second.ListSessions(context.Background(), 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "keep" {
		t.Fatalf("expected persisted session, got %+v", sessions)
	}
}
