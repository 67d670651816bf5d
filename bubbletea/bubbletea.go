// Package bubbletea provides a Bubble Tea terminal front-end that renders
// the snapshots published by a chat generator.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatstream"
)

// Chat is the generator the TUI drives. *agent.Generator implements it.
type Chat interface {
	Send(ctx context.Context, text string) error
	Regenerate(ctx context.Context) error
	Cancel()
	Snapshot() chatstream.Snapshot
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. Cancelling ctx quits the program.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// SnapshotMsg delivers the latest snapshot to the model.
type SnapshotMsg struct {
	Snapshot chatstream.Snapshot
}

// Notifier coalesces snapshot notifications. Register Notify as the
// generator's update handler; the model reads the latest snapshot whenever
// it is signalled, so bursts of updates collapse into one redraw and the
// final snapshot is never missed.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify signals that a new snapshot is available. It never blocks.
func (n *Notifier) Notify(chatstream.Snapshot) {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// listen waits for the next notification and reads the current snapshot.
func listen(n *Notifier, chat Chat) tea.Cmd {
	return func() tea.Msg {
		<-n.ch
		return SnapshotMsg{Snapshot: chat.Snapshot()}
	}
}
