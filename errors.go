package chatstream

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a configuration or input failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamClosed indicates an operation on a closed chunk stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrSessionNotFound indicates the store has no such session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMessageNotFound indicates an edit referenced an unknown message.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNoUserMessage indicates a regeneration was requested for a
	// conversation without a user message.
	ErrNoUserMessage = errors.New("no user message to respond to")

	// ErrSearchFailed indicates the search provider failed or timed out.
	ErrSearchFailed = errors.New("search failed")
)
