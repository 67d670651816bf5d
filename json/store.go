// Package json persists sessions as one JSON file per session.
package json

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/chatstream"
)

// Interface compliance checks.
var (
	_ chatstream.SessionStore  = (*Store)(nil)
	_ chatstream.SessionLoader = (*Store)(nil)
)

// Store keeps sessions in <dir>/<session-id>.json. Every write rewrites the
// whole file through a temp file and rename.
type Store struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file a session is stored in.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// ReplaceMessages overwrites the stored conversation.
func (s *Store) ReplaceMessages(_ context.Context, sessionID string, msgs []chatstream.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.loadOrNew(sessionID)
	if err != nil {
		return err
	}
	sess.Messages = msgs
	return s.save(sess)
}

// AppendMessage adds one message to the stored conversation.
func (s *Store) AppendMessage(_ context.Context, sessionID string, msg chatstream.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.loadOrNew(sessionID)
	if err != nil {
		return err
	}
	sess.Messages = append(sess.Messages, msg)
	return s.save(sess)
}

// LoadMessages returns the stored conversation or
// chatstream.ErrSessionNotFound.
func (s *Store) LoadMessages(_ context.Context, sessionID string) ([]chatstream.Message, error) {
	if err := validateID(sessionID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := Load(s.Path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("json: %s: %w", sessionID, chatstream.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("json: load %s: %w", sessionID, err)
	}
	return sess.Messages, nil
}

func (s *Store) loadOrNew(sessionID string) (chatstream.Session, error) {
	if err := validateID(sessionID); err != nil {
		return chatstream.Session{}, err
	}
	sess, err := Load(s.Path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return chatstream.Session{ID: sessionID, CreatedAt: s.now()}, nil
	}
	if err != nil {
		return chatstream.Session{}, fmt.Errorf("json: load %s: %w", sessionID, err)
	}
	return sess, nil
}

func (s *Store) save(sess chatstream.Session) error {
	sess.UpdatedAt = s.now()
	if err := Save(s.Path(sess.ID), sess); err != nil {
		return fmt.Errorf("json: save %s: %w", sess.ID, err)
	}
	return nil
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("json: invalid session id %q: %w", id, chatstream.ErrValidation)
	}
	return nil
}
