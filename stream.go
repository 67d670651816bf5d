package chatstream

import "context"

// ChunkStream is an ordered stream of text chunks from a model backend. It
// uses a pull-based iterator: Next returns io.EOF when generation ends
// normally. Cancellation flows through the context passed to
// Backend.Generate; Close stops generation early and releases resources.
type ChunkStream interface {
	Next() (string, error)
	Close() error
}

// Backend generates text for a literal prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string) (ChunkStream, error)
}
