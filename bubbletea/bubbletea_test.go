package bubbletea_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatstream"
	bt "github.com/fwojciec/chatstream/bubbletea"
	"github.com/stretchr/testify/require"
)

// fakeChat is a scripted Chat. Send and Regenerate run their Fn fields,
// which typically call publish to emit snapshots.
type fakeChat struct {
	notifier *bt.Notifier

	mu   sync.Mutex
	snap chatstream.Snapshot
	seq  uint64

	SendFn       func(c *fakeChat, text string) error
	RegenerateFn func(c *fakeChat) error
	cancels      atomic.Int32
}

func newFakeChat(msgs ...chatstream.Message) *fakeChat {
	c := &fakeChat{notifier: bt.NewNotifier()}
	c.snap = chatstream.Snapshot{SessionID: "s1", Phase: chatstream.PhaseIdle, Messages: msgs}
	return c
}

func (c *fakeChat) Send(_ context.Context, text string) error {
	if c.SendFn == nil {
		return nil
	}
	return c.SendFn(c, text)
}

func (c *fakeChat) Regenerate(context.Context) error {
	if c.RegenerateFn == nil {
		return nil
	}
	return c.RegenerateFn(c)
}

func (c *fakeChat) Cancel() { c.cancels.Add(1) }

func (c *fakeChat) Snapshot() chatstream.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// publish stores a snapshot with the next sequence number and notifies.
func (c *fakeChat) publish(phase chatstream.Phase, tc chatstream.ToolCallState, msgs ...chatstream.Message) chatstream.Snapshot {
	c.mu.Lock()
	c.seq++
	c.snap = chatstream.Snapshot{
		SessionID:    "s1",
		Seq:          c.seq,
		Phase:        phase,
		Messages:     msgs,
		IsGenerating: !phase.Terminal(),
		ToolCall:     tc,
	}
	snap := c.snap
	c.mu.Unlock()
	c.notifier.Notify(snap)
	return snap
}

func user(id, text string) chatstream.Message {
	return chatstream.Message{ID: id, Role: chatstream.RoleUser, Text: text}
}

func assistant(id, text string) chatstream.Message {
	return chatstream.Message{ID: id, Role: chatstream.RoleAssistant, Text: text}
}

func streaming(m chatstream.Message) chatstream.Message {
	m.IsStreaming = true
	return m
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, chat *fakeChat) bt.Model {
	t.Helper()
	return initModelWithSize(t, chat, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, chat *fakeChat, width, height int) bt.Model {
	t.Helper()
	m := bt.New(chat, chat.notifier, chatstream.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}
