package chatstream_test

import (
	"testing"
	"time"

	"github.com/fwojciec/chatstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := chatstream.NewMessage(chatstream.RoleUser, "hi", now)
	b := chatstream.NewMessage(chatstream.RoleUser, "hi", now)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, chatstream.RoleUser, a.Role)
	assert.Equal(t, "hi", a.Text)
	assert.Equal(t, now, a.CreatedAt)
	assert.False(t, a.IsStreaming)
	assert.False(t, a.IsError)
}

func TestCloneMessages(t *testing.T) {
	t.Parallel()

	assert.Nil(t, chatstream.CloneMessages(nil))

	orig := []chatstream.Message{{ID: "1", Text: "a"}}
	clone := chatstream.CloneMessages(orig)
	clone[0].Text = "b"
	assert.Equal(t, "a", orig[0].Text)
}

func TestPhase(t *testing.T) {
	t.Parallel()

	terminal := map[chatstream.Phase]bool{
		chatstream.PhaseIdle:                  true,
		chatstream.PhaseStreaming:             false,
		chatstream.PhaseToolDetected:          false,
		chatstream.PhaseSearchExecuting:       false,
		chatstream.PhaseContinuationStreaming: false,
		chatstream.PhaseCompleted:             true,
		chatstream.PhaseCancelled:             true,
		chatstream.PhaseErrored:               true,
	}
	for phase, want := range terminal {
		assert.Equal(t, want, phase.Terminal(), phase.String())
		assert.NotEqual(t, "unknown", phase.String())
	}
	assert.Equal(t, "unknown", chatstream.Phase(99).String())
}

func TestSnapshot_Last(t *testing.T) {
	t.Parallel()

	_, ok := chatstream.Snapshot{}.Last()
	assert.False(t, ok)

	snap := chatstream.Snapshot{Messages: []chatstream.Message{{ID: "1"}, {ID: "2"}}}
	last, ok := snap.Last()
	require.True(t, ok)
	assert.Equal(t, "2", last.ID)
}
