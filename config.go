package chatstream

import "time"

// Stream tuning defaults. They pace display updates and are not part of the
// marker protocol.
const (
	DefaultThrottleInterval = 40 * time.Millisecond
	DefaultMinRenderDelay   = 250 * time.Millisecond
	DefaultMinRenderChars   = 12
	DefaultMinimumBuffer    = 3
)

// Search defaults.
const (
	DefaultSearchTimeout    = 5 * time.Second
	DefaultSearchMaxResults = 5
)

// DefaultSystemPrompt explains the turn and search grammar to the model.
const DefaultSystemPrompt = `You are a helpful assistant running on the user's device.
Answer the latest user turn and finish your answer with ` + MarkerAssistantClose + `.
If you need current information from the web, reply with nothing but
` + MarkerSearchOpen + `your search query` + MarkerSearchClose + ` and wait for the results.`

// Config is the complete configuration of a chat client built on the engine.
type Config struct {
	SystemPrompt string
	Backend      BackendConfig
	Store        StoreConfig
	Search       SearchConfig
	Stream       StreamConfig
	Context      ContextConfig
}

// BackendConfig selects and tunes the model backend.
type BackendConfig struct {
	Provider    string // anthropic, gemini, ollama; empty = auto-detect
	Model       string // empty = provider default
	BaseURL     string // empty = provider default
	MaxTokens   int    // 0 = provider default
	Temperature *float64
}

// StoreConfig selects the session store.
type StoreConfig struct {
	Kind     string // json, sqlite, redis, none
	Path     string // json directory or sqlite database file
	Addr     string // redis address
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration // redis key expiry; 0 = none
}

// SearchConfig tunes the search round-trip.
type SearchConfig struct {
	Enabled    bool
	BaseURL    string
	Timeout    time.Duration
	MaxResults int
	// FailOnError turns a failed or timed out search into an errored turn
	// instead of continuing with no results.
	FailOnError bool
}

// StreamConfig tunes display pacing.
type StreamConfig struct {
	// ThrottleInterval is the minimum spacing of display updates.
	ThrottleInterval time.Duration
	// MinRenderDelay and MinRenderChars must both be reached before the
	// first partial text is shown.
	MinRenderDelay time.Duration
	MinRenderChars int
	// MinimumBuffer is the least number of bytes withheld while the end of
	// the text could be the start of a marker.
	MinimumBuffer int
}

// ContextConfig locates memory/context files included in prompts.
type ContextConfig struct {
	Root     string
	Patterns []string
	MaxBytes int // per file; 0 = unlimited
}

// DefaultStreamConfig returns the default display pacing.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ThrottleInterval: DefaultThrottleInterval,
		MinRenderDelay:   DefaultMinRenderDelay,
		MinRenderChars:   DefaultMinRenderChars,
		MinimumBuffer:    DefaultMinimumBuffer,
	}
}

// DefaultSearchConfig returns the default search settings.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Enabled:    true,
		Timeout:    DefaultSearchTimeout,
		MaxResults: DefaultSearchMaxResults,
	}
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		SystemPrompt: DefaultSystemPrompt,
		Store:        StoreConfig{Kind: "json"},
		Search:       DefaultSearchConfig(),
		Stream:       DefaultStreamConfig(),
		Context:      ContextConfig{Patterns: []string{"memory/**/*.md"}, MaxBytes: 16 * 1024},
	}
}
