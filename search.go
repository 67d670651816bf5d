package chatstream

import "context"

// NoSearchResults is the result text used when a search fails or times out.
const NoSearchResults = "No search results were found."

// Searcher runs a web search and returns a human-readable digest of the
// results.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}
