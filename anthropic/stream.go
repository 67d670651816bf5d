package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/chatstream"
)

type streamState int

const (
	stateNew streamState = iota
	stateStreaming
	stateComplete
	stateError
	stateClosed
)

// stream implements [chatstream.ChunkStream] by parsing SSE events from an
// HTTP response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	state   streamState
	err     error // terminal error, if any
}

// Interface compliance check.
var _ chatstream.ChunkStream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:    body,
		scanner: bufio.NewScanner(body),
		ctx:     ctx,
		state:   stateNew,
	}
}

// Next returns the next non-empty text delta.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (string, error) {
	switch s.state {
	case stateComplete:
		return "", io.EOF
	case stateError:
		return "", s.err
	case stateClosed:
		return "", fmt.Errorf("anthropic: %w", chatstream.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return "", s.err
		}

		s.state = stateStreaming

		text, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return "", s.err
		}

		// processEvent may set a terminal state (e.g. message_stop).
		if s.state == stateComplete {
			return "", io.EOF
		}

		if text != "" {
			return text, nil
		}
		// Non-text event (ping, message_start, etc.) - keep reading.
	}
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != stateComplete && s.state != stateError {
		s.state = stateClosed
	}
	return s.body.Close()
}

// terminate records a terminal error.
func (s *stream) terminate(err error) {
	s.state = stateError
	switch {
	case s.ctx.Err() != nil:
		s.err = s.ctx.Err()
	case err == io.EOF:
		// Normal completion via message_stop sets stateComplete before we
		// reach here. Raw EOF means the stream ended unexpectedly.
		s.err = fmt.Errorf("anthropic: unexpected end of stream")
	default:
		s.err = err
	}
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Empty line signals end of event.
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}

	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent returns the text carried by an SSE event, if any.
func (s *stream) processEvent(eventType, data string) (string, error) {
	switch eventType {
	case "content_block_delta":
		var evt sseContentBlockDelta
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return "", fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
		}
		if evt.Delta.Type == "text_delta" {
			return evt.Delta.Text, nil
		}
		return "", nil
	case "message_stop":
		s.state = stateComplete
		return "", nil
	case "error":
		var evt sseError
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return "", fmt.Errorf("anthropic: failed to parse error event: %w", err)
		}
		return "", fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
	default:
		// message_start, message_delta, content_block_start/stop, ping and
		// unknown event types carry no text.
		return "", nil
	}
}
