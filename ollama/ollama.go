// Package ollama implements [chatstream.Backend] for a local Ollama server.
//
// The marker-grammar prompt is sent verbatim to /api/generate in raw mode,
// bypassing the model's chat template, and the newline-delimited JSON
// response is surfaced as chunks.
package ollama

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2"
	generatePath   = "/api/generate"
)

// generateRequest is the JSON body sent to /api/generate.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Raw     bool     `json:"raw"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type options struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// generateChunk is one line of a streaming /api/generate response.
type generateChunk struct {
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
