// Package gemini implements [chatstream.Backend] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. The marker-grammar prompt is
// sent as a single user content and the SDK's iter.Seq2 streaming iterator
// is wrapped into the pull-based [chatstream.ChunkStream] interface.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192
)
