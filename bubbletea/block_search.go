package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
)

var _ MessageBlock = (*SearchBlock)(nil)

// SearchStatus is the progress of the web search shown by a SearchBlock.
type SearchStatus int

const (
	SearchPending SearchStatus = iota // Directive still being written.
	SearchRunning                     // Query sent, waiting for results.
	SearchDone                        // Results folded into the answer.
)

// SearchBlock renders the search performed for an assistant message. It
// starts collapsed; expanding it reveals the query.
type SearchBlock struct {
	query     string
	status    SearchStatus
	collapsed bool
	styles    Styles
}

// NewSearchBlock creates a collapsed SearchBlock.
func NewSearchBlock(styles Styles) *SearchBlock {
	return &SearchBlock{collapsed: true, styles: styles}
}

// Set updates the query and progress.
func (b *SearchBlock) Set(query string, status SearchStatus) {
	b.query = query
	b.status = status
}

// Status returns the current progress.
func (b *SearchBlock) Status() SearchStatus { return b.status }

func (b *SearchBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *SearchBlock) View(width int) string {
	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	var label string
	switch b.status {
	case SearchPending:
		label = "Preparing search…"
	case SearchRunning:
		label = "Searching the web…"
	default:
		label = "Searched the web"
	}
	content := b.styles.Search.Render(indicator + " " + label)
	if !b.collapsed && b.query != "" {
		content += "\n" + b.styles.Muted.Render(b.query)
	}
	return b.styles.SearchBg.Width(width).Render(content)
}
