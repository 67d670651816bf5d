package mock

import (
	"context"

	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.Searcher = (*Searcher)(nil)

// Searcher is a test double for chatstream.Searcher.
// Set SearchFn before calling Search.
type Searcher struct {
	SearchFn func(ctx context.Context, query string) (string, error)
}

// Search delegates to SearchFn.
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	return s.SearchFn(ctx, query)
}
