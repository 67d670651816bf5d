// Package prompt implements [chatstream.PromptAssembler] for the marker
// grammar: a system preamble followed by [USER] and [ASSISTANT] turns,
// ending with an open assistant turn.
package prompt

import (
	"fmt"
	"strings"

	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.PromptAssembler = (*Assembler)(nil)

// Assembler renders prompts.
type Assembler struct {
	maxTurns int
}

// Option configures an [Assembler].
type Option func(*Assembler)

// WithMaxTurns keeps only the last n history messages. Zero keeps all.
func WithMaxTurns(n int) Option {
	return func(a *Assembler) { a.maxTurns = n }
}

// New creates an [Assembler].
func New(opts ...Option) *Assembler {
	a := &Assembler{}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assemble renders req. Embedded text has its markers escaped. Error
// replies and empty assistant turns are left out of the history. When
// req carries search results the last user turn is followed by the search
// directive and a user turn with the results.
func (a *Assembler) Assemble(req chatstream.PromptRequest) (string, error) {
	history := usable(req.History)
	if a.maxTurns > 0 && len(history) > a.maxTurns {
		history = history[len(history)-a.maxTurns:]
	}
	if len(history) == 0 || history[len(history)-1].Role != chatstream.RoleUser {
		return "", fmt.Errorf("prompt: history must end with a user message: %w", chatstream.ErrValidation)
	}

	var b strings.Builder
	if p := strings.TrimSpace(req.SystemPrompt); p != "" {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	writeContext(&b, req.ContextBlocks)

	for _, m := range history {
		writeTurn(&b, m.Role, chatstream.EscapeMarkers(m.Text))
	}

	if req.SearchQuery != "" {
		query := chatstream.EscapeMarkers(req.SearchQuery)
		writeTurn(&b, chatstream.RoleAssistant, chatstream.MarkerSearchOpen+query+chatstream.MarkerSearchClose)
		results := strings.TrimSpace(req.SearchResults)
		if results == "" {
			results = chatstream.NoSearchResults
		}
		writeTurn(&b, chatstream.RoleUser, fmt.Sprintf(
			"Web search results for %q:\n\n%s\n\nUse these results to answer my previous message. Do not search again.",
			query, chatstream.EscapeMarkers(results)))
	}

	b.WriteString(chatstream.MarkerAssistantOpen)
	return b.String(), nil
}

func usable(msgs []chatstream.Message) []chatstream.Message {
	out := make([]chatstream.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsStreaming || m.IsError {
			continue
		}
		if m.Role == chatstream.RoleAssistant && strings.TrimSpace(m.Text) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func writeContext(b *strings.Builder, blocks []chatstream.ContextBlock) {
	var n int
	for _, c := range blocks {
		content := strings.TrimSpace(c.Content)
		if content == "" {
			continue
		}
		if n == 0 {
			b.WriteString("Things you remember about the user:\n\n")
		}
		n++
		fmt.Fprintf(b, "--- %s ---\n%s\n\n", c.Name, chatstream.EscapeMarkers(content))
	}
}

func writeTurn(b *strings.Builder, role chatstream.Role, text string) {
	b.WriteString(role.OpenMarker())
	b.WriteString(text)
	b.WriteString(role.CloseMarker())
	b.WriteString("\n")
}
