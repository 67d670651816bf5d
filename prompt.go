package chatstream

import "context"

// ContextBlock is a named piece of memory or context made available to the
// model, such as a notes file.
type ContextBlock struct {
	Name    string
	Content string
}

// ContextSource supplies context blocks for prompts.
type ContextSource interface {
	ContextBlocks(ctx context.Context) ([]ContextBlock, error)
}

// PromptRequest is everything a PromptAssembler needs to build a prompt.
// SearchQuery and SearchResults are set only for the continuation pass that
// follows a search.
type PromptRequest struct {
	SystemPrompt  string
	History       []Message
	ContextBlocks []ContextBlock
	SearchQuery   string
	SearchResults string
}

// PromptAssembler renders a PromptRequest into the literal prompt text fed
// to a Backend. The text uses the same marker grammar the engine parses out
// of responses and must end with an open assistant turn.
type PromptAssembler interface {
	Assemble(req PromptRequest) (string, error)
}
