package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/chatstream"
	"github.com/rivo/uniseg"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// turn is the state of one generation task: a first pass, an optional
// search and an optional continuation pass, all writing one assistant
// message.
type turn struct {
	g       *Generator
	ctx     context.Context
	limiter *rate.Limiter
	started time.Time

	idx      int // assistant message in g.messages
	shown    string
	ready    bool
	toolCall chatstream.ToolCallState
	results  []chatstream.TurnResult
}

func newTurn(ctx context.Context, g *Generator) *turn {
	limit := rate.Inf
	if g.streamCfg.ThrottleInterval > 0 {
		limit = rate.Every(g.streamCfg.ThrottleInterval)
	}
	return &turn{
		g:       g,
		ctx:     ctx,
		limiter: rate.NewLimiter(limit, 1),
		started: g.now(),
		idx:     -1,
	}
}

func (t *turn) run() {
	g := t.g
	ctx, span := g.tracer.Start(t.ctx, "agent.turn",
		trace.WithAttributes(attribute.String("session.id", g.sessionID)))
	defer span.End()
	t.ctx = ctx

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("generation panicked", "panic", r)
			t.finish(chatstream.TurnResult{Reason: chatstream.CompletionError, Err: fmt.Sprint(r)})
		}
	}()

	history := make([]chatstream.Message, 0, len(g.messages))
	for _, m := range g.messages {
		if !m.IsStreaming {
			history = append(history, m)
		}
	}
	blocks := t.contextBlocks()

	msg := chatstream.NewMessage(chatstream.RoleAssistant, "", g.now())
	msg.IsStreaming = true
	g.messages = append(g.messages, msg)
	t.idx = len(g.messages) - 1
	g.publish(chatstream.PhaseStreaming, t.toolCall, "")

	req := chatstream.PromptRequest{
		SystemPrompt:  g.systemPrompt,
		History:       history,
		ContextBlocks: blocks,
	}
	prompt, err := g.assembler.Assemble(req)
	if err != nil {
		t.finish(t.errorResult(fmt.Errorf("assemble prompt: %w", err)))
		return
	}

	res := t.pass(prompt, chatstream.PhaseStreaming, true)
	t.results = append(t.results, res)
	if res.Reason != chatstream.CompletionToolInvoked {
		t.finish(res)
		return
	}

	// The directive text is never shown; the search indicator replaces it.
	t.shown = ""
	g.messages[t.idx].Text = ""
	g.messages[t.idx].SearchQuery = res.Query
	g.publish(chatstream.PhaseSearchExecuting, t.toolCall, "")

	results, err := t.search(res.Query)
	if err != nil {
		if t.ctx.Err() != nil {
			t.finish(t.cancelled())
		} else {
			t.finish(t.errorResult(err))
		}
		return
	}

	req.SearchQuery = res.Query
	req.SearchResults = results
	prompt, err = g.assembler.Assemble(req)
	if err != nil {
		t.finish(t.errorResult(fmt.Errorf("assemble continuation prompt: %w", err)))
		return
	}
	g.publish(chatstream.PhaseContinuationStreaming, t.toolCall, "")
	res = t.pass(prompt, chatstream.PhaseContinuationStreaming, false)
	t.results = append(t.results, res)
	t.finish(res)
}

// pass streams one prompt into the assistant message until a stop marker,
// the end of the stream, a completed search directive (when detect is set),
// cancellation or an error.
func (t *turn) pass(prompt string, phase chatstream.Phase, detect bool) chatstream.TurnResult {
	g := t.g
	ctx, span := g.tracer.Start(t.ctx, "agent.pass",
		trace.WithAttributes(attribute.String("phase", phase.String())))
	defer span.End()

	stream, err := g.backend.Generate(ctx, prompt)
	if err != nil {
		if t.ctx.Err() != nil {
			return t.cancelled()
		}
		span.SetStatus(codes.Error, err.Error())
		return t.errorResult(err)
	}
	closeStream := sync.OnceValue(stream.Close)
	defer closeStream()

	var (
		acc    chatstream.Accumulator
		parser chatstream.ToolCallParser
		chunks int
	)
	for {
		if t.ctx.Err() != nil {
			return t.cancelled()
		}
		chunk, err := stream.Next()
		// A stream may ignore ctx and hand back a chunk after Cancel.
		if t.ctx.Err() != nil {
			return t.cancelled()
		}
		if errors.Is(err, io.EOF) {
			text := acc.Text()
			if i, _ := chatstream.IndexStopMarker(text); i >= 0 {
				text = text[:i]
			}
			span.SetAttributes(attribute.Int("chunks", chunks))
			return chatstream.TurnResult{
				Text:   chatstream.FinalizeDisplayText(text, t.shown),
				Reason: chatstream.CompletionNaturalStop,
			}
		}
		if err != nil {
			if t.ctx.Err() != nil {
				return t.cancelled()
			}
			span.SetStatus(codes.Error, err.Error())
			return t.errorResult(err)
		}
		chunks++
		acc.Append(chunk)

		prev := t.toolCall
		if detect {
			state, completed := parser.Update(acc.Text())
			t.toolCall = state
			if completed {
				closeStream()
				span.SetAttributes(attribute.String("search.query", state.Query))
				g.logger.Debug("search directive", "query", state.Query)
				g.publish(chatstream.PhaseToolDetected, state, "")
				return chatstream.TurnResult{Reason: chatstream.CompletionToolInvoked, Query: state.Query}
			}
		}

		if i, marker := chatstream.IndexStopMarker(acc.Text()); i >= 0 {
			text := acc.Truncate(i)
			closeStream()
			g.logger.Debug("stop marker", "marker", marker)
			return chatstream.TurnResult{
				Text:   chatstream.FinalizeDisplayText(text, t.shown),
				Reason: chatstream.CompletionNaturalStop,
			}
		}

		// A directive in progress is shown as a search indicator, not text.
		if detect && t.toolCall.Pending() {
			t.ready = true
			if t.toolCall != prev {
				if err := t.limiter.Wait(t.ctx); err != nil {
					return t.cancelled()
				}
				g.publish(phase, t.toolCall, "")
			}
			continue
		}

		if !t.renderReady(acc.Text()) {
			continue
		}
		visible := chatstream.SanitizeForDisplay(acc.Reveal(chatstream.AllMarkers, g.streamCfg.MinimumBuffer))
		if len(visible) <= len(t.shown) {
			continue
		}
		if err := t.limiter.Wait(t.ctx); err != nil {
			return t.cancelled()
		}
		t.shown = visible
		g.messages[t.idx].Text = visible
		g.publish(phase, t.toolCall, "")
	}
}

// renderReady reports whether the first partial text may be shown: both the
// render delay and the minimum number of user-perceived characters must
// have been reached, unless a search directive was indicated earlier.
func (t *turn) renderReady(text string) bool {
	if t.ready {
		return true
	}
	cfg := t.g.streamCfg
	if t.g.now().Sub(t.started) < cfg.MinRenderDelay {
		return false
	}
	if uniseg.GraphemeClusterCount(text) < cfg.MinRenderChars {
		return false
	}
	t.ready = true
	return true
}

func (t *turn) search(query string) (string, error) {
	g := t.g
	ctx, span := g.tracer.Start(t.ctx, "agent.search",
		trace.WithAttributes(attribute.String("search.query", query)))
	defer span.End()

	if g.searcher == nil || strings.TrimSpace(query) == "" {
		span.SetAttributes(attribute.Bool("search.skipped", true))
		return chatstream.NoSearchResults, nil
	}
	if g.searchCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.searchCfg.Timeout)
		defer cancel()
	}

	out, err := g.searcher.Search(ctx, query)
	if t.ctx.Err() != nil {
		return "", t.ctx.Err()
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("search failed", "query", query, "error", err)
		if g.searchCfg.FailOnError {
			return "", fmt.Errorf("%w: %w", chatstream.ErrSearchFailed, err)
		}
		return chatstream.NoSearchResults, nil
	}
	if strings.TrimSpace(out) == "" {
		return chatstream.NoSearchResults, nil
	}
	return out, nil
}

func (t *turn) contextBlocks() []chatstream.ContextBlock {
	if t.g.contexts == nil {
		return nil
	}
	blocks, err := t.g.contexts.ContextBlocks(t.ctx)
	if err != nil {
		t.g.logger.Warn("load context blocks failed", "error", err)
		return nil
	}
	return blocks
}

func (t *turn) cancelled() chatstream.TurnResult {
	return chatstream.TurnResult{Text: t.shown, Reason: chatstream.CompletionCancelled}
}

func (t *turn) errorResult(err error) chatstream.TurnResult {
	return chatstream.TurnResult{Text: t.shown, Reason: chatstream.CompletionError, Err: err.Error()}
}

// finish applies the terminal result to the assistant message, publishes the
// terminal snapshot and persists the conversation.
func (t *turn) finish(res chatstream.TurnResult) {
	g := t.g
	if t.idx < 0 {
		return
	}
	if len(t.results) == 0 || t.results[len(t.results)-1] != res {
		t.results = append(t.results, res)
	}
	m := &g.messages[t.idx]
	m.IsStreaming = false

	phase, notice := chatstream.PhaseCompleted, ""
	switch res.Reason {
	case chatstream.CompletionCancelled:
		m.Text = t.shown
		phase = chatstream.PhaseCancelled
	case chatstream.CompletionError:
		m.Text = "Error: " + res.Err
		m.IsError = true
		phase, notice = chatstream.PhaseErrored, res.Err
	default:
		m.Text = res.Text
	}
	g.publish(phase, t.toolCall, notice)
	g.replaceStored(t.ctx)
	g.logger.Info("turn finished", "phase", phase.String(), "reason", string(res.Reason), "passes", len(t.results))
}
