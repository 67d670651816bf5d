package chatstream_test

import (
	"testing"

	"github.com/fwojciec/chatstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(p *chatstream.ToolCallParser, chunks ...string) (states []chatstream.ToolCallState, completions int) {
	var text string
	for _, c := range chunks {
		text += c
		st, done := p.Update(text)
		states = append(states, st)
		if done {
			completions++
		}
	}
	return states, completions
}

func TestToolCallParser_SingleChunk(t *testing.T) {
	t.Parallel()
	var p chatstream.ToolCallParser
	st, done := p.Update("[SEARCH]weather today[/SEARCH]")
	require.True(t, done)
	assert.Equal(t, chatstream.ToolCallCompleted, st.Phase)
	assert.Equal(t, "weather today", st.Query)
	assert.Equal(t, 0, st.Start)
}

func TestToolCallParser_NotAtStart(t *testing.T) {
	t.Parallel()
	var p chatstream.ToolCallParser
	states, completions := feed(&p, "Sure, here's info ", "[SEARCH]x", "[/SEARCH]")
	assert.Zero(t, completions)
	for _, st := range states {
		assert.Equal(t, chatstream.ToolCallAbsent, st.Phase)
	}
}

func TestToolCallParser_SplitAcrossChunks(t *testing.T) {
	t.Parallel()
	var p chatstream.ToolCallParser
	states, completions := feed(&p, "  ", "[SEA", "rch]Tok", "yo wea", "ther[/SEA", "RCH]")
	require.Len(t, states, 6)
	assert.Equal(t, chatstream.ToolCallNone, states[0].Phase)
	assert.Equal(t, chatstream.ToolCallDetecting, states[1].Phase)
	assert.Equal(t, 2, states[1].Start)
	assert.Equal(t, chatstream.ToolCallActive, states[2].Phase)
	assert.Equal(t, "Tok", states[2].Query)
	assert.Equal(t, "Tokyo wea", states[3].Query)
	assert.Equal(t, "Tokyo weather", states[4].Query, "partial close marker is not part of the query")
	assert.Equal(t, chatstream.ToolCallCompleted, states[5].Phase)
	assert.Equal(t, "Tokyo weather", states[5].Query)
	assert.Equal(t, 1, completions)
}

func TestToolCallParser_DetectingThenMismatch(t *testing.T) {
	t.Parallel()
	var p chatstream.ToolCallParser
	states, _ := feed(&p, "[SE", "Ex", "[SEARCH]q[/SEARCH]")
	assert.Equal(t, chatstream.ToolCallDetecting, states[0].Phase)
	assert.Equal(t, chatstream.ToolCallAbsent, states[1].Phase)
	assert.Equal(t, chatstream.ToolCallAbsent, states[2].Phase)
}

func TestToolCallParser_CompletesOnce(t *testing.T) {
	t.Parallel()
	var p chatstream.ToolCallParser
	_, completions := feed(&p, "[SEARCH]q[/SEARCH]", " trailing", " more")
	assert.Equal(t, 1, completions)
	assert.Equal(t, "q", p.State().Query)
}

func TestToolCallParser_Reset(t *testing.T) {
	t.Parallel()
	var p chatstream.ToolCallParser
	p.Update("hello")
	require.Equal(t, chatstream.ToolCallAbsent, p.State().Phase)
	p.Reset()
	assert.Equal(t, chatstream.ToolCallNone, p.State().Phase)
	st, done := p.Update("[search] go [/search]")
	assert.True(t, done)
	assert.Equal(t, "go", st.Query)
}

func TestToolCallParser_PhasesOnlyMoveForward(t *testing.T) {
	t.Parallel()
	var p chatstream.ToolCallParser
	states, _ := feed(&p, "", "[", "SEARCH]", "abc", "[/SEARCH]", "x")
	prev := chatstream.ToolCallNone
	for _, st := range states {
		assert.GreaterOrEqual(t, st.Phase, prev)
		prev = st.Phase
	}
}

func TestToolCallState_Predicates(t *testing.T) {
	t.Parallel()
	assert.False(t, chatstream.ToolCallState{}.Indicated())
	assert.True(t, chatstream.ToolCallState{Phase: chatstream.ToolCallDetecting}.Indicated())
	assert.True(t, chatstream.ToolCallState{Phase: chatstream.ToolCallActive}.Pending())
	assert.False(t, chatstream.ToolCallState{Phase: chatstream.ToolCallCompleted}.Pending())
	assert.False(t, chatstream.ToolCallState{Phase: chatstream.ToolCallAbsent}.Indicated())
	assert.Equal(t, "active", chatstream.ToolCallActive.String())
}
