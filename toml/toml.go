// Package toml loads chatstream.Config from TOML files.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/chatstream"
)

// duration decodes Go duration strings such as "40ms" or "5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type fileConfig struct {
	SystemPrompt string        `toml:"system_prompt"`
	Backend      backendConfig `toml:"backend"`
	Store        storeConfig   `toml:"store"`
	Search       searchConfig  `toml:"search"`
	Stream       streamConfig  `toml:"stream"`
	Context      contextConfig `toml:"context"`
}

type backendConfig struct {
	Provider    string   `toml:"provider"`
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url"`
	MaxTokens   int      `toml:"max_tokens"`
	Temperature *float64 `toml:"temperature"`
}

type storeConfig struct {
	Kind     string   `toml:"kind"`
	Path     string   `toml:"path"`
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	Prefix   string   `toml:"prefix"`
	TTL      duration `toml:"ttl"`
}

type searchConfig struct {
	Enabled     bool     `toml:"enabled"`
	BaseURL     string   `toml:"base_url"`
	Timeout     duration `toml:"timeout"`
	MaxResults  int      `toml:"max_results"`
	FailOnError bool     `toml:"fail_on_error"`
}

type streamConfig struct {
	ThrottleInterval duration `toml:"throttle_interval"`
	MinRenderDelay   duration `toml:"min_render_delay"`
	MinRenderChars   int      `toml:"min_render_chars"`
	MinimumBuffer    int      `toml:"minimum_buffer"`
}

type contextConfig struct {
	Root     string   `toml:"root"`
	Patterns []string `toml:"patterns"`
	MaxBytes int      `toml:"max_bytes"`
}

// Load reads the file at path over chatstream.DefaultConfig and validates
// the result. A missing file yields the defaults.
func Load(path string) (chatstream.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return chatstream.DefaultConfig(), nil
	}
	if err != nil {
		return chatstream.Config{}, fmt.Errorf("toml: read %s: %w", path, err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return chatstream.Config{}, fmt.Errorf("toml: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over chatstream.DefaultConfig and validates the
// result. Unknown keys are rejected.
func Parse(data string) (chatstream.Config, error) {
	fc := fromConfig(chatstream.DefaultConfig())
	md, err := toml.Decode(data, &fc)
	if err != nil {
		return chatstream.Config{}, fmt.Errorf("decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return chatstream.Config{}, fmt.Errorf("unknown keys %s: %w", strings.Join(keys, ", "), chatstream.ErrValidation)
	}
	cfg := fc.toConfig()
	if err := cfg.Validate(); err != nil {
		return chatstream.Config{}, err
	}
	return cfg, nil
}

func fromConfig(c chatstream.Config) fileConfig {
	return fileConfig{
		SystemPrompt: c.SystemPrompt,
		Backend: backendConfig{
			Provider:    c.Backend.Provider,
			Model:       c.Backend.Model,
			BaseURL:     c.Backend.BaseURL,
			MaxTokens:   c.Backend.MaxTokens,
			Temperature: c.Backend.Temperature,
		},
		Store: storeConfig{
			Kind:     c.Store.Kind,
			Path:     c.Store.Path,
			Addr:     c.Store.Addr,
			Password: c.Store.Password,
			DB:       c.Store.DB,
			Prefix:   c.Store.Prefix,
			TTL:      duration{c.Store.TTL},
		},
		Search: searchConfig{
			Enabled:     c.Search.Enabled,
			BaseURL:     c.Search.BaseURL,
			Timeout:     duration{c.Search.Timeout},
			MaxResults:  c.Search.MaxResults,
			FailOnError: c.Search.FailOnError,
		},
		Stream: streamConfig{
			ThrottleInterval: duration{c.Stream.ThrottleInterval},
			MinRenderDelay:   duration{c.Stream.MinRenderDelay},
			MinRenderChars:   c.Stream.MinRenderChars,
			MinimumBuffer:    c.Stream.MinimumBuffer,
		},
		Context: contextConfig{
			Root:     c.Context.Root,
			Patterns: c.Context.Patterns,
			MaxBytes: c.Context.MaxBytes,
		},
	}
}

func (f fileConfig) toConfig() chatstream.Config {
	return chatstream.Config{
		SystemPrompt: f.SystemPrompt,
		Backend: chatstream.BackendConfig{
			Provider:    f.Backend.Provider,
			Model:       f.Backend.Model,
			BaseURL:     f.Backend.BaseURL,
			MaxTokens:   f.Backend.MaxTokens,
			Temperature: f.Backend.Temperature,
		},
		Store: chatstream.StoreConfig{
			Kind:     f.Store.Kind,
			Path:     f.Store.Path,
			Addr:     f.Store.Addr,
			Password: f.Store.Password,
			DB:       f.Store.DB,
			Prefix:   f.Store.Prefix,
			TTL:      f.Store.TTL.Duration,
		},
		Search: chatstream.SearchConfig{
			Enabled:     f.Search.Enabled,
			BaseURL:     f.Search.BaseURL,
			Timeout:     f.Search.Timeout.Duration,
			MaxResults:  f.Search.MaxResults,
			FailOnError: f.Search.FailOnError,
		},
		Stream: chatstream.StreamConfig{
			ThrottleInterval: f.Stream.ThrottleInterval.Duration,
			MinRenderDelay:   f.Stream.MinRenderDelay.Duration,
			MinRenderChars:   f.Stream.MinRenderChars,
			MinimumBuffer:    f.Stream.MinimumBuffer,
		},
		Context: chatstream.ContextConfig{
			Root:     f.Context.Root,
			Patterns: f.Context.Patterns,
			MaxBytes: f.Context.MaxBytes,
		},
	}
}
