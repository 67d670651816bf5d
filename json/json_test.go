package json_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/chatstream"
	csjson "github.com/fwojciec/chatstream/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	updated = time.Date(2026, 2, 18, 12, 5, 0, 0, time.UTC)
)

func fixedClock() time.Time { return updated }

func TestMarshalSession_RoundTrip(t *testing.T) {
	t.Parallel()
	session := chatstream.Session{
		ID:        "sess-123",
		CreatedAt: created,
		UpdatedAt: updated,
		Messages: []chatstream.Message{
			{ID: "m1", Role: chatstream.RoleUser, Text: "What's new in Go?", CreatedAt: created},
			{ID: "m2", Role: chatstream.RoleAssistant, Text: "Go 1.24 added...", SearchQuery: "go release notes", CreatedAt: created.Add(time.Second)},
			{ID: "m3", Role: chatstream.RoleAssistant, Text: "Error: boom", IsError: true, CreatedAt: created.Add(2 * time.Second)},
		},
	}

	data, err := csjson.MarshalSession(session)
	require.NoError(t, err)

	got, err := csjson.UnmarshalSession(data)
	require.NoError(t, err)

	assert.Equal(t, session.ID, got.ID)
	assert.True(t, session.CreatedAt.Equal(got.CreatedAt), "CreatedAt mismatch")
	assert.True(t, session.UpdatedAt.Equal(got.UpdatedAt), "UpdatedAt mismatch")
	require.Len(t, got.Messages, 3)
	for i := range session.Messages {
		want, have := session.Messages[i], got.Messages[i]
		assert.Equal(t, want.ID, have.ID)
		assert.Equal(t, want.Role, have.Role)
		assert.Equal(t, want.Text, have.Text)
		assert.Equal(t, want.IsError, have.IsError)
		assert.Equal(t, want.SearchQuery, have.SearchQuery)
		assert.True(t, want.CreatedAt.Equal(have.CreatedAt))
	}
}

func TestMarshalSession_JSONFieldNames(t *testing.T) {
	t.Parallel()
	session := chatstream.Session{
		ID:        "fields",
		CreatedAt: created,
		UpdatedAt: updated,
		Messages: []chatstream.Message{
			{ID: "m1", Role: chatstream.RoleAssistant, Text: "hi", SearchQuery: "q", IsError: true, CreatedAt: created},
		},
	}
	data, err := csjson.MarshalSession(session)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(1), raw["version"])
	assert.Equal(t, "fields", raw["id"])
	assert.Contains(t, raw, "created_at")
	assert.Contains(t, raw, "updated_at")

	msg := raw["messages"].([]any)[0].(map[string]any)
	assert.Equal(t, "assistant", msg["role"])
	assert.Equal(t, "hi", msg["text"])
	assert.Equal(t, "q", msg["search_query"])
	assert.Equal(t, true, msg["is_error"])
}

func TestMarshalSession_SkipsStreamingMessages(t *testing.T) {
	t.Parallel()
	session := chatstream.Session{
		ID: "streaming",
		Messages: []chatstream.Message{
			{ID: "m1", Role: chatstream.RoleUser, Text: "hi"},
			{ID: "m2", Role: chatstream.RoleAssistant, Text: "par", IsStreaming: true},
		},
	}
	data, err := csjson.MarshalSession(session)
	require.NoError(t, err)

	got, err := csjson.UnmarshalSession(data)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "m1", got.Messages[0].ID)
}

func TestMarshalSession_UnknownRole(t *testing.T) {
	t.Parallel()
	_, err := csjson.MarshalSession(chatstream.Session{
		Messages: []chatstream.Message{{Role: "system", Text: "x"}},
	})
	assert.Error(t, err)
}

func TestUnmarshalSession_UnknownRole(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"version": 1,
		"id": "test",
		"created_at": "2026-02-18T12:00:00Z",
		"updated_at": "2026-02-18T12:00:00Z",
		"messages": [{"id": "m1", "role": "tool", "text": ""}]
	}`)
	_, err := csjson.UnmarshalSession(data)
	assert.Error(t, err)
}

func TestUnmarshalSession_UnsupportedVersion(t *testing.T) {
	t.Parallel()
	data := []byte(`{"version": 99, "id": "test", "messages": []}`)
	_, err := csjson.UnmarshalSession(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported envelope version")
}

func TestSave_CreatesParentDirectories(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "deep", "session.json")

	require.NoError(t, csjson.Save(path, chatstream.Session{ID: "nested-save", CreatedAt: created}))

	got, err := csjson.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nested-save", got.ID)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
}

func TestLoad_NonexistentFile(t *testing.T) {
	t.Parallel()
	_, err := csjson.Load("/nonexistent/path/session.json")
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := chatstream.Message{ID: "u1", Role: chatstream.RoleUser, Text: "hello", CreatedAt: created}
	reply := chatstream.Message{ID: "a1", Role: chatstream.RoleAssistant, Text: "hi there", CreatedAt: created}

	t.Run("append then load", func(t *testing.T) {
		t.Parallel()
		s := csjson.New(t.TempDir(), csjson.WithClock(fixedClock))
		require.NoError(t, s.AppendMessage(ctx, "s1", user))
		require.NoError(t, s.AppendMessage(ctx, "s1", reply))

		got, err := s.LoadMessages(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "hello", got[0].Text)
		assert.Equal(t, "hi there", got[1].Text)
	})

	t.Run("replace keeps creation time", func(t *testing.T) {
		t.Parallel()
		now := created
		s := csjson.New(t.TempDir(), csjson.WithClock(func() time.Time { return now }))
		require.NoError(t, s.AppendMessage(ctx, "s1", user))
		now = updated
		require.NoError(t, s.ReplaceMessages(ctx, "s1", []chatstream.Message{reply}))

		sess, err := csjson.Load(s.Path("s1"))
		require.NoError(t, err)
		assert.True(t, created.Equal(sess.CreatedAt))
		assert.True(t, updated.Equal(sess.UpdatedAt))
		require.Len(t, sess.Messages, 1)
		assert.Equal(t, "a1", sess.Messages[0].ID)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		s := csjson.New(t.TempDir())
		_, err := s.LoadMessages(ctx, "missing")
		assert.ErrorIs(t, err, chatstream.ErrSessionNotFound)
	})

	t.Run("rejects path-like ids", func(t *testing.T) {
		t.Parallel()
		s := csjson.New(t.TempDir())
		for _, id := range []string{"", "..", "a/b", `a\b`} {
			assert.ErrorIs(t, s.AppendMessage(ctx, id, user), chatstream.ErrValidation, id)
			_, err := s.LoadMessages(ctx, id)
			assert.ErrorIs(t, err, chatstream.ErrValidation, id)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		s := csjson.New(dir)
		require.NoError(t, os.WriteFile(s.Path("bad"), []byte("{"), 0o600))
		_, err := s.LoadMessages(ctx, "bad")
		require.Error(t, err)
		assert.NotErrorIs(t, err, chatstream.ErrSessionNotFound)
	})
}

func TestEncodeMessage(t *testing.T) {
	t.Parallel()
	msg := chatstream.Message{ID: "m1", Role: chatstream.RoleAssistant, Text: "[SEARCH] done", SearchQuery: "q", CreatedAt: created}

	data, err := csjson.EncodeMessage(msg)
	require.NoError(t, err)
	got, err := csjson.DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, msg.Text, got.Text)
	assert.Equal(t, msg.SearchQuery, got.SearchQuery)
	assert.True(t, msg.CreatedAt.Equal(got.CreatedAt))

	_, err = csjson.DecodeMessage([]byte(`{"role":"bot"}`))
	assert.Error(t, err)
}
