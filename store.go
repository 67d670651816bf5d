package chatstream

import "context"

// SessionStore persists conversation messages. Writes are fire-and-forget
// from the engine's point of view: failures are logged, never retried.
type SessionStore interface {
	ReplaceMessages(ctx context.Context, sessionID string, msgs []Message) error
	AppendMessage(ctx context.Context, sessionID string, msg Message) error
}

// SessionLoader is implemented by stores that can read a session back.
// LoadMessages returns ErrSessionNotFound for unknown sessions.
type SessionLoader interface {
	LoadMessages(ctx context.Context, sessionID string) ([]Message, error)
}
