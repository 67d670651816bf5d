package mock

import (
	"context"

	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.Backend = (*Backend)(nil)

// Backend is a test double for chatstream.Backend.
// Set GenerateFn before calling Generate.
type Backend struct {
	GenerateFn func(ctx context.Context, prompt string) (chatstream.ChunkStream, error)
}

// Generate delegates to GenerateFn.
func (b *Backend) Generate(ctx context.Context, prompt string) (chatstream.ChunkStream, error) {
	return b.GenerateFn(ctx, prompt)
}
