package agent

import (
	"log/slog"
	"time"

	"github.com/fwojciec/chatstream"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Generator.
type Option func(*Generator)

// WithSearcher sets the web searcher. Without one every search yields
// chatstream.NoSearchResults.
func WithSearcher(s chatstream.Searcher) Option {
	return func(g *Generator) { g.searcher = s }
}

// WithStore sets the session store messages are persisted to.
func WithStore(s chatstream.SessionStore) Option {
	return func(g *Generator) { g.store = s }
}

// WithContextSource sets the source of context blocks included in prompts.
func WithContextSource(c chatstream.ContextSource) Option {
	return func(g *Generator) { g.contexts = c }
}

// WithSessionID sets the session ID instead of generating one.
func WithSessionID(id string) Option {
	return func(g *Generator) { g.sessionID = id }
}

// WithHistory seeds the conversation, typically from a SessionLoader.
// Messages still marked streaming are dropped.
func WithHistory(msgs []chatstream.Message) Option {
	return func(g *Generator) {
		g.messages = g.messages[:0]
		for _, m := range msgs {
			if !m.IsStreaming {
				g.messages = append(g.messages, m)
			}
		}
	}
}

// WithSystemPrompt overrides chatstream.DefaultSystemPrompt.
func WithSystemPrompt(p string) Option {
	return func(g *Generator) { g.systemPrompt = p }
}

// WithStreamConfig sets display pacing.
func WithStreamConfig(c chatstream.StreamConfig) Option {
	return func(g *Generator) { g.streamCfg = c }
}

// WithSearchConfig sets search timeout and failure handling.
func WithSearchConfig(c chatstream.SearchConfig) Option {
	return func(g *Generator) { g.searchCfg = c }
}

// WithUpdateHandler registers fn to receive every published snapshot. It is
// called from the generation goroutine and must not block for long.
func WithUpdateHandler(fn func(chatstream.Snapshot)) Option {
	return func(g *Generator) { g.onUpdate = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithTracerProvider sets the provider spans are recorded with. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Generator) { g.tracer = tp.Tracer(tracerName) }
}
