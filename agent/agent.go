// Package agent runs generation sessions. A Generator drives a model backend
// through one assistant turn at a time, pivots into a web search when the
// model asks for one, and publishes immutable display snapshots.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/chatstream"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/fwojciec/chatstream/agent"

// Generator owns a conversation and runs at most one generation task for it
// at a time.
type Generator struct {
	backend   chatstream.Backend
	assembler chatstream.PromptAssembler
	searcher  chatstream.Searcher
	store     chatstream.SessionStore
	contexts  chatstream.ContextSource

	sessionID    string
	systemPrompt string
	streamCfg    chatstream.StreamConfig
	searchCfg    chatstream.SearchConfig
	onUpdate     func(chatstream.Snapshot)
	logger       *slog.Logger
	tracer       trace.Tracer
	now          func() time.Time

	// mu serializes Send, Regenerate and Edit.
	mu sync.Mutex

	// runMu guards the active task handle.
	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// messages belongs to the active task, or to the holder of mu while no
	// task runs.
	messages []chatstream.Message

	resMu   sync.Mutex
	results []chatstream.TurnResult

	seq  atomic.Uint64
	snap atomic.Pointer[chatstream.Snapshot]
}

// New creates a Generator that generates with backend and builds prompts
// with assembler.
func New(backend chatstream.Backend, assembler chatstream.PromptAssembler, opts ...Option) *Generator {
	g := &Generator{
		backend:      backend,
		assembler:    assembler,
		sessionID:    uuid.NewString(),
		systemPrompt: chatstream.DefaultSystemPrompt,
		streamCfg:    chatstream.DefaultStreamConfig(),
		searchCfg:    chatstream.DefaultSearchConfig(),
		logger:       slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	g.logger = g.logger.With("component", "agent", "session", g.sessionID)
	g.snap.Store(&chatstream.Snapshot{
		SessionID: g.sessionID,
		Phase:     chatstream.PhaseIdle,
		Messages:  chatstream.CloneMessages(g.messages),
	})
	return g
}

// SessionID returns the ID of the conversation.
func (g *Generator) SessionID() string { return g.sessionID }

// Snapshot returns the latest published snapshot.
func (g *Generator) Snapshot() chatstream.Snapshot { return *g.snap.Load() }

// Results returns the pass results of the most recently finished task.
func (g *Generator) Results() []chatstream.TurnResult {
	g.resMu.Lock()
	defer g.resMu.Unlock()
	return append([]chatstream.TurnResult(nil), g.results...)
}

// Send appends a user message and starts generating a reply. Any generation
// in progress is cancelled and awaited first.
func (g *Generator) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty message: %w", chatstream.ErrValidation)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stop()

	msg := chatstream.NewMessage(chatstream.RoleUser, text, g.now())
	g.messages = append(g.messages, msg)
	if g.store != nil {
		if err := g.store.AppendMessage(context.WithoutCancel(ctx), g.sessionID, msg); err != nil {
			g.logger.Warn("append message failed", "error", err)
		}
	}
	g.start(ctx)
	return nil
}

// Regenerate discards the replies after the last user message and generates
// a new one.
func (g *Generator) Regenerate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stop()

	last := -1
	for i, m := range g.messages {
		if m.Role == chatstream.RoleUser {
			last = i
		}
	}
	if last < 0 {
		return chatstream.ErrNoUserMessage
	}
	g.messages = g.messages[:last+1]
	g.replaceStored(ctx)
	g.start(ctx)
	return nil
}

// Edit rewrites the user message with the given ID, drops everything after
// it and generates a new reply.
func (g *Generator) Edit(ctx context.Context, messageID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty message: %w", chatstream.ErrValidation)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stop()

	idx := -1
	for i, m := range g.messages {
		if m.ID == messageID && m.Role == chatstream.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("edit %s: %w", messageID, chatstream.ErrMessageNotFound)
	}
	g.messages[idx].Text = text
	g.messages = g.messages[:idx+1]
	g.replaceStored(ctx)
	g.start(ctx)
	return nil
}

// Cancel asks the active task to stop. It does not wait for it; use Wait.
func (g *Generator) Cancel() {
	g.runMu.Lock()
	defer g.runMu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
}

// Wait blocks until the active task, if any, has finished.
func (g *Generator) Wait() {
	g.runMu.Lock()
	done := g.done
	g.runMu.Unlock()
	if done != nil {
		<-done
	}
}

// stop cancels and awaits the active task. Callers hold mu.
func (g *Generator) stop() {
	g.Cancel()
	g.Wait()
}

// start launches a task for the current messages. Callers hold mu.
func (g *Generator) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	g.runMu.Lock()
	g.cancel = cancel
	g.done = done
	g.runMu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		t := newTurn(ctx, g)
		t.run()
		g.resMu.Lock()
		g.results = t.results
		g.resMu.Unlock()
	}()
}

// publish stores and delivers a snapshot of the current messages.
func (g *Generator) publish(phase chatstream.Phase, toolCall chatstream.ToolCallState, notice string) {
	snap := &chatstream.Snapshot{
		SessionID:    g.sessionID,
		Seq:          g.seq.Add(1),
		Phase:        phase,
		Messages:     chatstream.CloneMessages(g.messages),
		IsGenerating: !phase.Terminal(),
		ToolCall:     toolCall,
		Notice:       notice,
	}
	g.snap.Store(snap)
	if g.onUpdate != nil {
		g.onUpdate(*snap)
	}
}

// replaceStored persists the full message list. Failures are logged only.
func (g *Generator) replaceStored(ctx context.Context) {
	if g.store == nil {
		return
	}
	msgs := chatstream.CloneMessages(g.messages)
	if err := g.store.ReplaceMessages(context.WithoutCancel(ctx), g.sessionID, msgs); err != nil {
		g.logger.Warn("replace messages failed", "error", err)
	}
}
