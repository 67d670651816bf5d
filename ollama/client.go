package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.Backend = (*Client)(nil)

// Client implements [chatstream.Backend] for Ollama.
type Client struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature *float64
	httpClient  *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the server URL. Empty keeps the default.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model. Empty keeps the default.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens limits the number of generated tokens. Zero means the
// server default.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t *float64) Option {
	return func(c *Client) { c.temperature = t }
}

// New creates a new Ollama [Client].
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate streams a raw completion of prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (chatstream.ChunkStream, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Raw:    true,
		Stream: true,
		Options: &options{
			Temperature: c.temperature,
			NumPredict:  c.maxTokens,
			Stop:        []string{chatstream.MarkerAssistantClose, chatstream.MarkerUserOpen},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	return newStream(ctx, resp.Body), nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ollama: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return fmt.Errorf("ollama: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return fmt.Errorf("ollama: HTTP %d: %s", resp.StatusCode, e.Error)
}
