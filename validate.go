package chatstream

import (
	"fmt"
	"slices"
)

// Validate checks universal constraints on Config.
func (c Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	return c.Stream.Validate()
}

// Validate checks backend settings.
func (c BackendConfig) Validate() error {
	if c.Provider != "" && !slices.Contains([]string{"anthropic", "gemini", "ollama"}, c.Provider) {
		return fmt.Errorf("unknown provider %q: %w", c.Provider, ErrValidation)
	}
	if c.Temperature != nil {
		if *c.Temperature < 0 || *c.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *c.Temperature, ErrValidation)
		}
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", c.MaxTokens, ErrValidation)
	}
	return nil
}

// Validate checks store settings.
func (c StoreConfig) Validate() error {
	switch c.Kind {
	case "", "none", "json", "sqlite":
	case "redis":
		if c.Addr == "" {
			return fmt.Errorf("redis store requires an address: %w", ErrValidation)
		}
	default:
		return fmt.Errorf("unknown store kind %q: %w", c.Kind, ErrValidation)
	}
	if c.TTL < 0 {
		return fmt.Errorf("store ttl must be non-negative, got %s: %w", c.TTL, ErrValidation)
	}
	return nil
}

// Validate checks search settings.
func (c SearchConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("search timeout must be non-negative, got %s: %w", c.Timeout, ErrValidation)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("search max_results must be non-negative, got %d: %w", c.MaxResults, ErrValidation)
	}
	return nil
}

// Validate checks stream pacing settings.
func (c StreamConfig) Validate() error {
	if c.ThrottleInterval < 0 || c.MinRenderDelay < 0 {
		return fmt.Errorf("stream intervals must be non-negative: %w", ErrValidation)
	}
	if c.MinRenderChars < 0 || c.MinimumBuffer < 0 {
		return fmt.Errorf("stream thresholds must be non-negative: %w", ErrValidation)
	}
	return nil
}
