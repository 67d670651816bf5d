package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatstream/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders the visible text of an assistant message as
// markdown. The whole text is rendered at once so link numbering stays
// consistent; the last rendering is cached until the text or width changes.
type AssistantTextBlock struct {
	content  string
	renderer *goldmark.Renderer

	cachedWidth int
	cached      string
	dirty       bool
}

// NewAssistantTextBlock creates an empty block.
func NewAssistantTextBlock(renderer *goldmark.Renderer) *AssistantTextBlock {
	return &AssistantTextBlock{renderer: renderer}
}

// SetText replaces the displayed text.
func (b *AssistantTextBlock) SetText(text string) {
	if text == b.content {
		return
	}
	b.content = text
	b.dirty = true
}

// Text returns the displayed text.
func (b *AssistantTextBlock) Text() string { return b.content }

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	if !b.dirty && width == b.cachedWidth {
		return b.cached
	}
	src := b.content
	if hasUnclosedFence(src) {
		// Close a fence still being streamed so the rest renders as code.
		src += "\n```"
	}
	out := ""
	if strings.TrimSpace(src) != "" {
		out = b.renderer.Render(src, width)
	}
	b.cached, b.cachedWidth, b.dirty = out, width, false
	return out
}

// hasUnclosedFence reports an odd number of "```" in s. Triple backticks
// inside inline code are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
