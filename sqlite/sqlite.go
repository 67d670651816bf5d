// Package sqlite persists sessions in a SQLite database using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/chatstream"
	_ "modernc.org/sqlite"
)

// Interface compliance checks.
var (
	_ chatstream.SessionStore  = (*Store)(nil)
	_ chatstream.SessionLoader = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	session_id   TEXT    NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	id           TEXT    NOT NULL,
	role         TEXT    NOT NULL,
	text         TEXT    NOT NULL,
	is_error     INTEGER NOT NULL DEFAULT 0,
	search_query TEXT    NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);`

// Store is a SQLite-backed session store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceMessages overwrites the stored conversation in one transaction.
func (s *Store) ReplaceMessages(ctx context.Context, sessionID string, msgs []chatstream.Message) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.touch(ctx, tx, sessionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		seq := 0
		for _, m := range msgs {
			if m.IsStreaming {
				continue
			}
			if err := insertMessage(ctx, tx, sessionID, seq, m); err != nil {
				return err
			}
			seq++
		}
		return nil
	})
}

// AppendMessage adds one message after the stored ones.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg chatstream.Message) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.touch(ctx, tx, sessionID); err != nil {
			return err
		}
		var next int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq) + 1, 0) FROM messages WHERE session_id = ?`, sessionID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return insertMessage(ctx, tx, sessionID, next, msg)
	})
}

// LoadMessages returns the stored conversation or
// chatstream.ErrSessionNotFound.
func (s *Store) LoadMessages(ctx context.Context, sessionID string) ([]chatstream.Message, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: %s: %w", sessionID, chatstream.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", sessionID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, text, is_error, search_query, created_at
		FROM messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", sessionID, err)
	}
	defer rows.Close()

	var msgs []chatstream.Message
	for rows.Next() {
		var (
			m       chatstream.Message
			role    string
			isError int
			created int64
		)
		if err := rows.Scan(&m.ID, &role, &m.Text, &isError, &m.SearchQuery, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		m.Role = chatstream.Role(role)
		m.IsError = isError != 0
		m.CreatedAt = time.Unix(0, created).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", sessionID, err)
	}
	return msgs, nil
}

// touch creates the session row or bumps its update time.
func (s *Store) touch(ctx context.Context, tx *sql.Tx, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("empty session id: %w", chatstream.ErrValidation)
	}
	now := s.now().UnixNano()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, sessionID string, seq int, m chatstream.Message) error {
	isError := 0
	if m.IsError {
		isError = 1
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO messages (session_id, seq, id, role, text, is_error, search_query, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, seq, m.ID, string(m.Role), m.Text, isError, m.SearchQuery, m.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert message %s: %w", m.ID, err)
	}
	return nil
}
