package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wirechat-unix/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	identity     INTEGER NOT NULL,
	nickname     TEXT NOT NULL,
	opened_at    DATETIME NOT NULL,
	closed_at    DATETIME,
	close_reason TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sessions_opened ON sessions(opened_at DESC);
`

// ErrSessionNotFound is returned when closing a session that was never opened.
var ErrSessionNotFound = errors.New("session not found")

// SQLiteStore implements store.SessionStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.SessionStore = (*SQLiteStore)(nil)

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// OpenSession inserts a new open session.
func (s *SQLiteStore) OpenSession(ctx context.Context, sess store.Session) error {
	query := `
		INSERT INTO sessions (id, identity, nickname, opened_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.Identity, sess.Nickname, sess.OpenedAt.UTC()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// CloseSession marks a session closed.
func (s *SQLiteStore) CloseSession(ctx context.Context, id, nickname, reason string, at time.Time) error {
	query := `
		UPDATE sessions
		SET nickname = ?, closed_at = ?, close_reason = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, nickname, at.UTC(), reason, id)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns the newest sessions first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]store.Session, error) {
	query := `
		SELECT id, identity, nickname, opened_at, closed_at, close_reason
		FROM sessions
		ORDER BY opened_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []store.Session
	for rows.Next() {
		var (
			sess     store.Session
			closedAt sql.NullTime
		)
		if err := rows.Scan(&sess.ID, &sess.Identity, &sess.Nickname, &sess.OpenedAt, &closedAt, &sess.CloseReason); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if closedAt.Valid {
			t := closedAt.Time
			sess.ClosedAt = &t
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
