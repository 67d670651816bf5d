package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/chatstream"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ chatstream.Backend = (*Client)(nil)

// Client implements [chatstream.Backend] for the Google Gemini API.
type Client struct {
	client      *genai.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature *float64
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Empty keeps the default.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens sets the output token limit. Zero keeps the default.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t *float64) Option {
	return func(c *Client) { c.temperature = t }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Generate streams a response to prompt and returns a
// [chatstream.ChunkStream] of its text.
func (c *Client) Generate(ctx context.Context, prompt string) (chatstream.ChunkStream, error) {
	seq := c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), buildConfig(c.maxTokens, c.temperature))
	return newStream(seq), nil
}

func buildConfig(maxTokens int, temperature *float64) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		StopSequences:   []string{chatstream.MarkerAssistantClose, chatstream.MarkerUserOpen},
	}
	if temperature != nil {
		temp := float32(*temperature)
		config.Temperature = &temp
	}
	return config
}
