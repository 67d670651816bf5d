package gemini

import (
	"iter"

	"github.com/fwojciec/chatstream"
	"google.golang.org/genai"
)

// NewStreamFromIter exposes the stream wrapper for tests.
func NewStreamFromIter(seq iter.Seq2[*genai.GenerateContentResponse, error]) chatstream.ChunkStream {
	return newStream(seq)
}

// BuildConfig exposes request config construction for tests.
var BuildConfig = buildConfig
