package ollama_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ndjson(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, l := range lines {
			fmt.Fprintln(w, l)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func collectChunks(t *testing.T, s chatstream.ChunkStream) []string {
	t.Helper()
	var chunks []string
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	t.Run("request format", func(t *testing.T) {
		t.Parallel()

		var body map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			ndjson(`{"response":"","done":true}`)(w, r)
		}))
		defer srv.Close()

		temp := 0.2
		c := ollama.New(ollama.WithBaseURL(srv.URL), ollama.WithModel("qwen2.5"),
			ollama.WithMaxTokens(256), ollama.WithTemperature(&temp))
		s, err := c.Generate(context.Background(), "[USER]hi[/USER]\n[ASSISTANT]")
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, "qwen2.5", body["model"])
		assert.Equal(t, "[USER]hi[/USER]\n[ASSISTANT]", body["prompt"])
		assert.Equal(t, true, body["raw"])
		assert.Equal(t, true, body["stream"])
		opts := body["options"].(map[string]any)
		assert.Equal(t, 0.2, opts["temperature"])
		assert.Equal(t, float64(256), opts["num_predict"])
		assert.Equal(t, []any{"[/ASSISTANT]", "[USER]"}, opts["stop"])
	})

	t.Run("streams response fragments", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(ndjson(
			`{"model":"m","response":"Hel","done":false}`,
			``,
			`{"model":"m","response":"lo","done":false}`,
			`{"model":"m","response":"","done":true,"done_reason":"stop"}`,
		))
		defer srv.Close()

		s, err := ollama.New(ollama.WithBaseURL(srv.URL)).Generate(context.Background(), "p")
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, []string{"Hel", "lo"}, collectChunks(t, s))
		_, err = s.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("error line", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(ndjson(
			`{"response":"a","done":false}`,
			`{"error":"model crashed"}`,
		))
		defer srv.Close()

		s, err := ollama.New(ollama.WithBaseURL(srv.URL)).Generate(context.Background(), "p")
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Next()
		require.NoError(t, err)
		_, err = s.Next()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model crashed")
	})

	t.Run("truncated stream", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(ndjson(`{"response":"a","done":false}`))
		defer srv.Close()

		s, err := ollama.New(ollama.WithBaseURL(srv.URL)).Generate(context.Background(), "p")
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Next()
		require.NoError(t, err)
		_, err = s.Next()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected end of stream")
	})

	t.Run("http error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model \"x\" not found"}`))
		}))
		defer srv.Close()

		_, err := ollama.New(ollama.WithBaseURL(srv.URL)).Generate(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("next after close", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(ndjson(`{"response":"a","done":false}`, `{"done":true}`))
		defer srv.Close()

		s, err := ollama.New(ollama.WithBaseURL(srv.URL)).Generate(context.Background(), "p")
		require.NoError(t, err)
		require.NoError(t, s.Close())
		_, err = s.Next()
		assert.ErrorIs(t, err, chatstream.ErrStreamClosed)
	})
}
