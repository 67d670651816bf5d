// Command chatstream is a terminal chat client for marker-protocol language
// models with on-demand web search.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... chatstream [flags]
//	GEMINI_API_KEY=gk-...   chatstream [flags]
//	OLLAMA_HOST=http://localhost:11434 chatstream [flags]
//
// Flags:
//
//	-config string      Path to TOML config (default: <user config dir>/chatstream/config.toml)
//	-provider string    Provider: anthropic, gemini, ollama (auto-detected from env vars if omitted)
//	-model string       Model ID (default: provider default)
//	-api-key string     API key (overrides provider's env var)
//	-session string     Session ID to resume or create
//	-store string       Session store: json, sqlite, redis, none
//	-no-search          Disable web search
//	-log-file string    Log file (default: <user cache dir>/chatstream/chatstream.log)
//	-log-format string  Log format: text, json
//	-log-level string   Log level: debug, info, warn, error
//	-trace-file string  Write OpenTelemetry spans to this file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/agent"
	bt "github.com/fwojciec/chatstream/bubbletea"
	"github.com/fwojciec/chatstream/duckduckgo"
	"github.com/fwojciec/chatstream/fs"
	"github.com/fwojciec/chatstream/prompt"
	"github.com/fwojciec/chatstream/toml"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatstream: %v\n", err)
		os.Exit(1)
	}
}

// flags holds command-line overrides. Empty values leave the config file
// setting in place.
type flags struct {
	config    string
	provider  string
	model     string
	apiKey    string
	session   string
	store     string
	noSearch  bool
	logFile   string
	logFormat string
	logLevel  string
	traceFile string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fset := flag.NewFlagSet("chatstream", flag.ContinueOnError)
	fset.StringVar(&f.config, "config", defaultPath(os.UserConfigDir, "config.toml"), "Path to TOML config")
	fset.StringVar(&f.provider, "provider", "", "Provider: anthropic, gemini, ollama (auto-detected from env vars if omitted)")
	fset.StringVar(&f.model, "model", "", "Model ID (provider-specific)")
	fset.StringVar(&f.apiKey, "api-key", "", "API key (overrides provider's env var)")
	fset.StringVar(&f.session, "session", "", "Session ID to resume or create")
	fset.StringVar(&f.store, "store", "", "Session store: json, sqlite, redis, none")
	fset.BoolVar(&f.noSearch, "no-search", false, "Disable web search")
	fset.StringVar(&f.logFile, "log-file", defaultPath(os.UserCacheDir, "chatstream.log"), "Log file")
	fset.StringVar(&f.logFormat, "log-format", "text", "Log format: text, json")
	fset.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fset.StringVar(&f.traceFile, "trace-file", "", "Write OpenTelemetry spans to this file")
	if err := fset.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

// apply overlays flags on cfg.
func (f flags) apply(cfg chatstream.Config) chatstream.Config {
	if f.provider != "" {
		cfg.Backend.Provider = f.provider
	}
	if f.model != "" {
		cfg.Backend.Model = f.model
	}
	if f.store != "" {
		cfg.Store.Kind = f.store
	}
	if f.noSearch {
		cfg.Search.Enabled = false
	}
	return cfg
}

func run() error {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := toml.Load(f.config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Stderr belongs to the TUI, so logs go to a file.
	logOut, err := openAppend(f.logFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logOut.Close()
	logger, err := newLogger(logOut, f.logFormat, f.logLevel)
	if err != nil {
		return err
	}

	shutdownTracing, err := setupTracing(f.traceFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("trace shutdown failed", "error", err)
		}
	}()

	// Env vars are read here and passed as values.
	backend, name, err := resolveBackend(ctx, cfg.Backend, f.apiKey, environment{
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		OllamaHost:   os.Getenv("OLLAMA_HOST"),
	})
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Store, defaultPath(os.UserConfigDir, "sessions"))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []agent.Option{
		agent.WithLogger(logger.With("component", "agent")),
		agent.WithSystemPrompt(cfg.SystemPrompt),
		agent.WithStreamConfig(cfg.Stream),
		agent.WithSearchConfig(cfg.Search),
	}
	if store.SessionStore != nil {
		opts = append(opts, agent.WithStore(store.SessionStore))
	}
	if f.session != "" {
		opts = append(opts, agent.WithSessionID(f.session))
		history, err := loadHistory(ctx, store.SessionLoader, f.session)
		if err != nil {
			return err
		}
		opts = append(opts, agent.WithHistory(history))
	}
	if cfg.Search.Enabled {
		opts = append(opts, agent.WithSearcher(duckduckgo.New(
			duckduckgo.WithBaseURL(cfg.Search.BaseURL),
			duckduckgo.WithMaxResults(cfg.Search.MaxResults),
		)))
	}
	if len(cfg.Context.Patterns) > 0 {
		ctxCfg := cfg.Context
		if ctxCfg.Root == "" {
			ctxCfg.Root = filepath.Dir(f.config)
		}
		src, err := fs.New(ctxCfg)
		if err != nil {
			return fmt.Errorf("context files: %w", err)
		}
		opts = append(opts, agent.WithContextSource(src))
	}

	notifier := bt.NewNotifier()
	opts = append(opts, agent.WithUpdateHandler(notifier.Notify))
	gen := agent.New(backend, prompt.New(), opts...)
	logger.Info("session started", "session", gen.SessionID(), "provider", name, "store", cfg.Store.Kind)

	err = bt.Run(ctx, bt.New(gen, notifier, chatstream.DefaultTheme()))
	gen.Cancel()
	gen.Wait()
	if err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	if store.SessionStore != nil {
		fmt.Fprintf(os.Stderr, "Session %s saved. Resume with -session %s\n", gen.SessionID(), gen.SessionID())
	}
	return nil
}

// loadHistory reads a session back. An unknown session starts empty.
func loadHistory(ctx context.Context, loader chatstream.SessionLoader, id string) ([]chatstream.Message, error) {
	if loader == nil {
		return nil, nil
	}
	msgs, err := loader.LoadMessages(ctx, id)
	if errors.Is(err, chatstream.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return msgs, nil
}

// defaultPath joins name under the chatstream directory of a per-user base
// directory, falling back to the working directory.
func defaultPath(base func() (string, error), name string) string {
	dir, err := base()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "chatstream", name)
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
