package gemini

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/chatstream"
	"google.golang.org/genai"
)

type streamState int

const (
	stateStreaming streamState = iota
	stateComplete
	stateError
	stateClosed
)

// stream implements [chatstream.ChunkStream] by wrapping the genai SDK's
// streaming iterator.
type stream struct {
	pull  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	state streamState
	err   error
}

// Interface compliance check.
var _ chatstream.ChunkStream = (*stream)(nil)

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{pull: next, stop: stop}
}

// Next returns the text of the next response chunk that carries any.
// Thought parts are skipped.
func (s *stream) Next() (string, error) {
	switch s.state {
	case stateComplete:
		return "", io.EOF
	case stateError:
		return "", s.err
	case stateClosed:
		return "", fmt.Errorf("gemini: %w", chatstream.ErrStreamClosed)
	}
	for {
		resp, err, ok := s.pull()
		if !ok {
			s.state = stateComplete
			return "", io.EOF
		}
		if err != nil {
			s.state = stateError
			s.err = fmt.Errorf("gemini: %w", err)
			return "", s.err
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
}

// Close stops the underlying iterator.
func (s *stream) Close() error {
	if s.state == stateStreaming {
		s.state = stateClosed
	}
	s.stop()
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
