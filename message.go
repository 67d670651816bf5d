package chatstream

import (
	"time"

	"github.com/google/uuid"
)

// Message is one turn of a conversation as shown to the user and persisted
// by the session store.
type Message struct {
	ID          string
	Role        Role
	Text        string
	IsStreaming bool
	IsError     bool
	// SearchQuery is the query of the web search the assistant performed
	// before producing Text, if any.
	SearchQuery string
	CreatedAt   time.Time
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role Role, text string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: now,
	}
}

// CloneMessages returns a copy of msgs that shares no backing array with it.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
