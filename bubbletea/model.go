package bubbletea

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/goldmark"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

const (
	inputHeight  = 3
	statusHeight = 1
	borderHeight = 2 // newlines between sections
)

// Model is the Bubble Tea model for the chat TUI. It never mutates the
// conversation itself: every change goes through Chat and comes back as a
// snapshot.
type Model struct {
	// Input is the message editor. Exported for test access.
	Input textarea.Model
	// Viewport is the scrollable conversation. Exported for test access.
	Viewport viewport.Model

	chat     Chat
	notifier *Notifier
	renderer *goldmark.Renderer
	styles   Styles

	snap   chatstream.Snapshot
	blocks []MessageBlock
	focus  int // index of the focused SearchBlock (-1 = none)

	// Blocks are keyed by message ID so render caches and collapsed state
	// survive across snapshots.
	assistants map[string]*AssistantTextBlock
	searches   map[string]*SearchBlock

	err   error
	ready bool
}

// New creates a Model for chat. notifier must be registered as the chat's
// update handler.
func New(chat Chat, notifier *Notifier, theme chatstream.Theme) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = ""
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.Focus()

	m := Model{
		Input:      ta,
		chat:       chat,
		notifier:   notifier,
		renderer:   goldmark.New(theme),
		styles:     NewStyles(theme),
		focus:      -1,
		assistants: make(map[string]*AssistantTextBlock),
		searches:   make(map[string]*SearchBlock),
	}
	m.snap = chat.Snapshot()
	return m.rebuild()
}

// Generating reports whether a reply is being generated.
func (m Model) Generating() bool { return m.snap.IsGenerating }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, listen(m.notifier, m.chat))
}

// chatErrMsg reports a failed Send or Regenerate.
type chatErrMsg struct {
	err error
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		return m.applySnapshot(msg.Snapshot), listen(m.notifier, m.chat)

	case chatErrMsg:
		m.err = msg.err
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.snap.IsGenerating {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	vpHeight := max(msg.Height-inputHeight-statusHeight-borderHeight, 1)
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.SetWidth(msg.Width)
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	generating := m.snap.IsGenerating
	switch msg.Type {
	case tea.KeyCtrlC:
		if generating {
			m.chat.Cancel()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if generating {
			m.chat.Cancel()
		}
		return m, nil

	case tea.KeyEnter:
		if generating {
			return m, nil
		}
		if msg.Alt {
			m.Input.InsertString("\n")
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		m.Input.Reset()
		m.err = nil
		return m, m.send(text)

	case tea.KeyCtrlR:
		if generating {
			return m, nil
		}
		m.err = nil
		chat := m.chat
		return m, func() tea.Msg {
			if err := chat.Regenerate(context.Background()); err != nil {
				return chatErrMsg{err: err}
			}
			return nil
		}

	case tea.KeyTab:
		if m.focus >= 0 && m.focus < len(m.blocks) {
			block, cmd := m.blocks[m.focus].Update(ToggleMsg{})
			m.blocks[m.focus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		m = m.cycleFocusPrev()
		m.Viewport.SetContent(m.renderContent())
		return m, nil
	}

	// Character keys go to the editor only; 'j'/'k' would otherwise scroll.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !generating {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) send(text string) tea.Cmd {
	chat := m.chat
	return func() tea.Msg {
		if err := chat.Send(context.Background(), text); err != nil {
			return chatErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) applySnapshot(snap chatstream.Snapshot) Model {
	if snap.Seq < m.snap.Seq && snap.SessionID == m.snap.SessionID {
		return m
	}
	m.snap = snap
	if snap.Phase == chatstream.PhaseErrored && snap.Notice != "" {
		m.err = errors.New(snap.Notice)
	}
	m = m.rebuild()
	if m.ready {
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
	}
	return m
}

// rebuild derives the block list from the current snapshot.
func (m Model) rebuild() Model {
	msgs := m.snap.Messages
	blocks := make([]MessageBlock, 0, len(msgs)+1)
	for i, msg := range msgs {
		switch {
		case msg.Role == chatstream.RoleUser:
			blocks = append(blocks, NewUserMessageBlock(terminalSafe(msg.Text), m.styles))
		case msg.IsError:
			blocks = append(blocks, NewErrorBlock(terminalSafe(msg.Text), m.styles))
		default:
			live := msg.IsStreaming && i == len(msgs)-1
			if status, query, ok := searchStatus(msg, m.snap, live); ok {
				sb, found := m.searches[msg.ID]
				if !found {
					sb = NewSearchBlock(m.styles)
					m.searches[msg.ID] = sb
				}
				sb.Set(terminalSafe(query), status)
				blocks = append(blocks, sb)
			}
			if msg.Text == "" {
				continue
			}
			ab, found := m.assistants[msg.ID]
			if !found {
				ab = NewAssistantTextBlock(m.renderer)
				m.assistants[msg.ID] = ab
			}
			ab.SetText(terminalSafe(msg.Text))
			blocks = append(blocks, ab)
		}
	}
	m.blocks = blocks
	return m.updateFocus()
}

// searchStatus reports whether an assistant message has a search to show.
func searchStatus(msg chatstream.Message, snap chatstream.Snapshot, live bool) (SearchStatus, string, bool) {
	if !live {
		return SearchDone, msg.SearchQuery, msg.SearchQuery != ""
	}
	switch snap.Phase {
	case chatstream.PhaseToolDetected, chatstream.PhaseSearchExecuting:
		return SearchRunning, snap.ToolCall.Query, true
	case chatstream.PhaseContinuationStreaming:
		return SearchDone, msg.SearchQuery, true
	}
	if snap.ToolCall.Pending() {
		return SearchPending, snap.ToolCall.Query, true
	}
	return SearchDone, "", false
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// updateFocus focuses the last search block.
func (m Model) updateFocus() Model {
	m.focus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*SearchBlock); ok {
			m.focus = i
			break
		}
	}
	return m
}

// cycleFocusPrev moves focus to the previous search block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	if len(m.blocks) == 0 {
		return m
	}
	start := m.focus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if _, ok := m.blocks[idx].(*SearchBlock); ok {
			m.focus = idx
			return m
		}
	}
	m.focus = -1
	return m
}

func (m Model) statusLine() string {
	width := m.Viewport.Width
	var line string
	style := m.styles.Muted
	switch {
	case m.err != nil:
		line, style = "Error: "+m.err.Error(), m.styles.Error
	case m.snap.Phase == chatstream.PhaseToolDetected || m.snap.Phase == chatstream.PhaseSearchExecuting:
		line = "Searching... (Esc to stop)"
	case m.snap.IsGenerating:
		line = "Generating... (Esc to stop)"
	default:
		line = "Enter to send, Alt+Enter for newline, Ctrl+R to regenerate, Ctrl+C to quit"
	}
	if width > 0 {
		line = runewidth.Truncate(line, width, "…")
	}
	return style.Render(line)
}
