package mock

import (
	"context"

	"github.com/fwojciec/chatstream"
)

// Interface compliance checks.
var (
	_ chatstream.SessionStore  = (*SessionStore)(nil)
	_ chatstream.SessionLoader = (*SessionStore)(nil)
)

// SessionStore is a test double for chatstream.SessionStore and
// chatstream.SessionLoader. Set the function fields for the methods you need.
type SessionStore struct {
	ReplaceMessagesFn func(ctx context.Context, sessionID string, msgs []chatstream.Message) error
	AppendMessageFn   func(ctx context.Context, sessionID string, msg chatstream.Message) error
	LoadMessagesFn    func(ctx context.Context, sessionID string) ([]chatstream.Message, error)
}

// ReplaceMessages delegates to ReplaceMessagesFn.
func (s *SessionStore) ReplaceMessages(ctx context.Context, sessionID string, msgs []chatstream.Message) error {
	return s.ReplaceMessagesFn(ctx, sessionID, msgs)
}

// AppendMessage delegates to AppendMessageFn.
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID string, msg chatstream.Message) error {
	return s.AppendMessageFn(ctx, sessionID, msg)
}

// LoadMessages delegates to LoadMessagesFn.
func (s *SessionStore) LoadMessages(ctx context.Context, sessionID string) ([]chatstream.Message, error) {
	return s.LoadMessagesFn(ctx, sessionID)
}
