package chatstream

import "time"

// Session is a persisted conversation.
type Session struct {
	ID        string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}
