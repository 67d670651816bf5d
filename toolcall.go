package chatstream

import (
	"strings"
	"unicode"
)

// ToolCallPhase discriminates ToolCallState.
type ToolCallPhase int

const (
	ToolCallNone      ToolCallPhase = iota // Nothing but whitespace seen yet.
	ToolCallDetecting                      // Turn starts with a prefix of the open marker.
	ToolCallActive                         // Open marker seen, query still growing.
	ToolCallCompleted                      // Close marker seen, query final.
	ToolCallAbsent                         // No directive this turn.
)

func (p ToolCallPhase) String() string {
	switch p {
	case ToolCallNone:
		return "none"
	case ToolCallDetecting:
		return "detecting"
	case ToolCallActive:
		return "active"
	case ToolCallCompleted:
		return "completed"
	case ToolCallAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// ToolCallState is the search directive state of one turn. Start is the
// offset of the open marker (Detecting, Active). Query is the partial query
// while Active and the final query once Completed.
type ToolCallState struct {
	Phase ToolCallPhase
	Start int
	Query string
}

// Indicated reports whether the turn shows any sign of a directive.
func (s ToolCallState) Indicated() bool {
	switch s.Phase {
	case ToolCallDetecting, ToolCallActive, ToolCallCompleted:
		return true
	}
	return false
}

// Pending reports whether a directive is possible or in progress but not
// yet complete.
func (s ToolCallState) Pending() bool {
	return s.Phase == ToolCallDetecting || s.Phase == ToolCallActive
}

// ToolCallParser recognizes a search directive emitted as the first
// non-whitespace output of a turn. It is fed the whole accumulated text of
// the turn on every update. Phases only move forward; Reset starts a new turn.
type ToolCallParser struct {
	state ToolCallState
}

// State returns the current state.
func (p *ToolCallParser) State() ToolCallState { return p.state }

// Reset returns the parser to ToolCallNone for a new turn.
func (p *ToolCallParser) Reset() { p.state = ToolCallState{} }

// Update advances the parser over text, the full text accumulated so far in
// the turn. The boolean is true only on the update that completes the
// directive.
func (p *ToolCallParser) Update(text string) (ToolCallState, bool) {
	switch p.state.Phase {
	case ToolCallCompleted, ToolCallAbsent:
		return p.state, false
	case ToolCallNone, ToolCallDetecting:
		rest := strings.TrimLeftFunc(text, unicode.IsSpace)
		if rest == "" {
			return p.state, false
		}
		start := len(text) - len(rest)
		switch {
		case len(rest) < len(MarkerSearchOpen) && HasPrefixFold(MarkerSearchOpen, rest):
			p.state = ToolCallState{Phase: ToolCallDetecting, Start: start}
			return p.state, false
		case HasPrefixFold(rest, MarkerSearchOpen):
			p.state = ToolCallState{Phase: ToolCallActive, Start: start}
		default:
			p.state = ToolCallState{Phase: ToolCallAbsent}
			return p.state, false
		}
	}

	body := text[p.state.Start+len(MarkerSearchOpen):]
	if i := IndexFold(body, MarkerSearchClose); i >= 0 {
		p.state = ToolCallState{
			Phase: ToolCallCompleted,
			Start: p.state.Start,
			Query: strings.TrimSpace(body[:i]),
		}
		return p.state, true
	}
	if n := PartialSuffixLength(body, MarkerSet{MarkerSearchClose}, 0); n > 0 {
		body = body[:len(body)-n]
	}
	p.state.Query = strings.TrimSpace(body)
	return p.state, false
}
