package mock

import (
	"context"

	"github.com/fwojciec/chatstream"
)

// Interface compliance checks.
var (
	_ chatstream.PromptAssembler = (*PromptAssembler)(nil)
	_ chatstream.ContextSource   = (*ContextSource)(nil)
)

// PromptAssembler is a test double for chatstream.PromptAssembler.
// Set AssembleFn before calling Assemble.
type PromptAssembler struct {
	AssembleFn func(req chatstream.PromptRequest) (string, error)
}

// Assemble delegates to AssembleFn.
func (p *PromptAssembler) Assemble(req chatstream.PromptRequest) (string, error) {
	return p.AssembleFn(req)
}

// ContextSource is a test double for chatstream.ContextSource.
// Set ContextBlocksFn before calling ContextBlocks.
type ContextSource struct {
	ContextBlocksFn func(ctx context.Context) ([]chatstream.ContextBlock, error)
}

// ContextBlocks delegates to ContextBlocksFn.
func (c *ContextSource) ContextBlocks(ctx context.Context) ([]chatstream.ContextBlock, error) {
	return c.ContextBlocksFn(ctx)
}
