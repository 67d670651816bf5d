package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/chatstream"
)

// stream implements [chatstream.ChunkStream] over an NDJSON response body.
type stream struct {
	ctx    context.Context
	body   io.ReadCloser
	reader *bufio.Reader
	done   bool
	closed bool
	err    error
}

// Interface compliance check.
var _ chatstream.ChunkStream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{ctx: ctx, body: body, reader: bufio.NewReader(body)}
}

// Next returns the next non-empty response fragment.
func (s *stream) Next() (string, error) {
	switch {
	case s.closed:
		return "", fmt.Errorf("ollama: %w", chatstream.ErrStreamClosed)
	case s.err != nil:
		return "", s.err
	case s.done:
		return "", io.EOF
	}
	for {
		line, err := s.reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var chunk generateChunk
			if jerr := json.Unmarshal(line, &chunk); jerr != nil {
				return "", s.fail(fmt.Errorf("ollama: malformed chunk: %w", jerr))
			}
			if chunk.Error != "" {
				return "", s.fail(fmt.Errorf("ollama: %s", chunk.Error))
			}
			if chunk.Done {
				s.done = true
			}
			if chunk.Response != "" {
				return chunk.Response, nil
			}
			if s.done {
				return "", io.EOF
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", s.fail(errors.New("ollama: unexpected end of stream"))
			}
			return "", s.fail(fmt.Errorf("ollama: %w", err))
		}
	}
}

// Close closes the response body.
func (s *stream) Close() error {
	if !s.done && s.err == nil {
		s.closed = true
	}
	return s.body.Close()
}

func (s *stream) fail(err error) error {
	if s.ctx.Err() != nil {
		err = s.ctx.Err()
	}
	s.err = err
	return err
}
