package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := chatstream.Message{ID: "u1", Role: chatstream.RoleUser, Text: "hello", CreatedAt: ts}
	reply := chatstream.Message{ID: "a1", Role: chatstream.RoleAssistant, Text: "hi", SearchQuery: "greeting", CreatedAt: ts.Add(time.Second)}
	failed := chatstream.Message{ID: "a2", Role: chatstream.RoleAssistant, Text: "Error: boom", IsError: true, CreatedAt: ts}

	t.Run("append preserves order and fields", func(t *testing.T) {
		t.Parallel()
		s := openStore(t)
		require.NoError(t, s.AppendMessage(ctx, "s1", user))
		require.NoError(t, s.AppendMessage(ctx, "s1", reply))

		got, err := s.LoadMessages(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, user, got[0])
		assert.Equal(t, reply, got[1])
	})

	t.Run("replace overwrites", func(t *testing.T) {
		t.Parallel()
		s := openStore(t)
		require.NoError(t, s.AppendMessage(ctx, "s1", user))
		require.NoError(t, s.AppendMessage(ctx, "s1", reply))
		require.NoError(t, s.ReplaceMessages(ctx, "s1", []chatstream.Message{user, failed}))

		got, err := s.LoadMessages(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []chatstream.Message{user, failed}, got)
	})

	t.Run("replace skips streaming messages", func(t *testing.T) {
		t.Parallel()
		s := openStore(t)
		streaming := reply
		streaming.IsStreaming = true
		require.NoError(t, s.ReplaceMessages(ctx, "s1", []chatstream.Message{user, streaming}))

		got, err := s.LoadMessages(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []chatstream.Message{user}, got)
	})

	t.Run("empty session loads as empty", func(t *testing.T) {
		t.Parallel()
		s := openStore(t)
		require.NoError(t, s.ReplaceMessages(ctx, "s1", nil))

		got, err := s.LoadMessages(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		t.Parallel()
		s := openStore(t)
		require.NoError(t, s.AppendMessage(ctx, "s1", user))
		require.NoError(t, s.AppendMessage(ctx, "s2", reply))

		got, err := s.LoadMessages(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, []chatstream.Message{reply}, got)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		s := openStore(t)
		_, err := s.LoadMessages(ctx, "missing")
		assert.ErrorIs(t, err, chatstream.ErrSessionNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()
		s := openStore(t)
		assert.ErrorIs(t, s.AppendMessage(ctx, "", user), chatstream.ErrValidation)
	})

	t.Run("survives reopen", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sessions.db")
		s, err := sqlite.Open(ctx, path)
		require.NoError(t, err)
		require.NoError(t, s.AppendMessage(ctx, "s1", user))
		require.NoError(t, s.Close())

		s, err = sqlite.Open(ctx, path)
		require.NoError(t, err)
		defer s.Close()
		got, err := s.LoadMessages(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []chatstream.Message{user}, got)
	})
}
