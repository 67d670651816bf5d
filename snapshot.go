package chatstream

// Phase is the state of a generation session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseToolDetected
	PhaseSearchExecuting
	PhaseContinuationStreaming
	PhaseCompleted
	PhaseCancelled
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseToolDetected:
		return "tool_detected"
	case PhaseSearchExecuting:
		return "search_executing"
	case PhaseContinuationStreaming:
		return "continuation_streaming"
	case PhaseCompleted:
		return "completed"
	case PhaseCancelled:
		return "cancelled"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no generation is in progress in this phase.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseIdle, PhaseCompleted, PhaseCancelled, PhaseErrored:
		return true
	}
	return false
}

// Snapshot is an immutable view of a session published after every change.
// Consumers may hold on to it; the engine never mutates a published
// snapshot.
type Snapshot struct {
	SessionID    string
	Seq          uint64
	Phase        Phase
	Messages     []Message
	IsGenerating bool
	ToolCall     ToolCallState
	// Notice is a transient user-facing error, set when a turn errored.
	Notice string
}

// Last returns the last message and true, or a zero Message and false.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// CompletionReason indicates why a pass over a model stream ended.
type CompletionReason string

const (
	CompletionNaturalStop CompletionReason = "natural_stop"
	CompletionToolInvoked CompletionReason = "tool_invoked"
	CompletionCancelled   CompletionReason = "cancelled"
	CompletionError       CompletionReason = "error"
)

// TurnResult is the outcome of one pass over a model stream. Exactly one
// reason applies. Query is set when the reason is CompletionToolInvoked and
// Err when it is CompletionError.
type TurnResult struct {
	Text   string
	Reason CompletionReason
	Query  string
	Err    string
}
