package mock

import "github.com/fwojciec/chatstream"

// Interface compliance check.
var _ chatstream.ChunkStream = (*ChunkStream)(nil)

// ChunkStream is a test double for chatstream.ChunkStream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// because code under test commonly calls defer stream.Close().
type ChunkStream struct {
	NextFn  func() (string, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *ChunkStream) Next() (string, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *ChunkStream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
