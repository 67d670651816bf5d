package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/anthropic"
	"github.com/fwojciec/chatstream/gemini"
	"github.com/fwojciec/chatstream/ollama"
)

// environment carries the env vars the backend depends on. Env is only read
// in run().
type environment struct {
	AnthropicKey string
	GeminiKey    string
	OllamaHost   string
}

// backendChoice is the resolved provider and credentials.
type backendChoice struct {
	name    string
	key     string
	baseURL string
}

// resolveChoice selects the provider. An explicit provider wins; otherwise
// exactly one of the API keys, or OLLAMA_HOST, must be set.
func resolveChoice(cfg chatstream.BackendConfig, apiKeyFlag string, env environment) (backendChoice, error) {
	provider := cfg.Provider

	if provider == "" {
		hasAnthropic := env.AnthropicKey != ""
		hasGemini := env.GeminiKey != ""
		switch {
		case hasAnthropic && hasGemini:
			return backendChoice{}, fmt.Errorf("multiple API keys found (ANTHROPIC_API_KEY, GEMINI_API_KEY): use -provider flag to select")
		case hasAnthropic:
			provider = "anthropic"
		case hasGemini:
			provider = "gemini"
		case env.OllamaHost != "":
			provider = "ollama"
		default:
			return backendChoice{}, fmt.Errorf("no API key found: set ANTHROPIC_API_KEY or GEMINI_API_KEY, or OLLAMA_HOST for a local model (or use -provider and -api-key flags)")
		}
	}

	key := apiKeyFlag
	switch provider {
	case "anthropic":
		if key == "" {
			key = env.AnthropicKey
		}
		if key == "" {
			return backendChoice{}, fmt.Errorf("ANTHROPIC_API_KEY not set (use -api-key flag or environment variable)")
		}
		return backendChoice{name: provider, key: key, baseURL: cfg.BaseURL}, nil
	case "gemini":
		if key == "" {
			key = env.GeminiKey
		}
		if key == "" {
			return backendChoice{}, fmt.Errorf("GEMINI_API_KEY not set (use -api-key flag or environment variable)")
		}
		return backendChoice{name: provider, key: key, baseURL: cfg.BaseURL}, nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = env.OllamaHost
		}
		return backendChoice{name: provider, baseURL: baseURL}, nil
	default:
		return backendChoice{}, fmt.Errorf("unknown provider %q: must be \"anthropic\", \"gemini\" or \"ollama\"", provider)
	}
}

// resolveBackend selects and constructs the backend.
func resolveBackend(ctx context.Context, cfg chatstream.BackendConfig, apiKeyFlag string, env environment) (chatstream.Backend, string, error) {
	choice, err := resolveChoice(cfg, apiKeyFlag, env)
	if err != nil {
		return nil, "", err
	}
	switch choice.name {
	case "anthropic":
		return anthropic.New(choice.key,
			anthropic.WithBaseURL(choice.baseURL),
			anthropic.WithModel(cfg.Model),
			anthropic.WithMaxTokens(cfg.MaxTokens),
			anthropic.WithTemperature(cfg.Temperature),
		), choice.name, nil
	case "gemini":
		opts := []gemini.Option{
			gemini.WithModel(cfg.Model),
			gemini.WithMaxTokens(cfg.MaxTokens),
			gemini.WithTemperature(cfg.Temperature),
		}
		if choice.baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(choice.baseURL))
		}
		client, err := gemini.New(ctx, choice.key, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("gemini: %w", err)
		}
		return client, choice.name, nil
	default:
		return ollama.New(
			ollama.WithBaseURL(choice.baseURL),
			ollama.WithModel(cfg.Model),
			ollama.WithMaxTokens(cfg.MaxTokens),
			ollama.WithTemperature(cfg.Temperature),
		), choice.name, nil
	}
}
