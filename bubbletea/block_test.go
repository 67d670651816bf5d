package bubbletea_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/chatstream"
	bt "github.com/fwojciec/chatstream/bubbletea"
	"github.com/fwojciec/chatstream/goldmark"
	"github.com/stretchr/testify/assert"
)

func TestAssistantTextBlock(t *testing.T) {
	t.Parallel()
	r := goldmark.New(chatstream.DefaultTheme())

	t.Run("empty renders nothing", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantTextBlock(r)
		assert.Equal(t, "", b.View(80))
	})

	t.Run("renders markdown", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantTextBlock(r)
		b.SetText("# Title\n\nbody")
		out := stripANSI(b.View(80))
		assert.Contains(t, out, "Title")
		assert.Contains(t, out, "body")
		assert.NotContains(t, out, "#")
	})

	t.Run("replaced text is re-rendered", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantTextBlock(r)
		b.SetText("first")
		assert.Contains(t, stripANSI(b.View(80)), "first")
		b.SetText("second")
		out := stripANSI(b.View(80))
		assert.Contains(t, out, "second")
		assert.NotContains(t, out, "first")
	})

	t.Run("unclosed fence renders as code", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantTextBlock(r)
		b.SetText("```go\nfunc main() {")
		out := stripANSI(b.View(80))
		assert.Contains(t, out, "func main() {")
		assert.NotContains(t, out, "```")
	})
}

func TestSearchBlock(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(chatstream.DefaultTheme())

	b := bt.NewSearchBlock(styles)
	b.Set("golang generics", bt.SearchRunning)
	out := stripANSI(b.View(60))
	assert.Contains(t, out, "▶ Searching the web…")
	assert.NotContains(t, out, "golang generics")

	b.Update(bt.ToggleMsg{})
	b.Set("golang generics", bt.SearchDone)
	out = stripANSI(b.View(60))
	assert.Contains(t, out, "▼ Searched the web")
	assert.Contains(t, out, "golang generics")
}

func TestUserMessageBlock(t *testing.T) {
	t.Parallel()
	b := bt.NewUserMessageBlock("a fairly long user message that has to wrap", bt.NewStyles(chatstream.DefaultTheme()))
	lines := strings.Split(stripANSI(b.View(20)), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "> "))
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "  "), "continuation not indented: %q", line)
	}
}

func TestNotifier(t *testing.T) {
	t.Parallel()
	n := bt.NewNotifier()
	// Bursts never block.
	for range 100 {
		n.Notify(chatstream.Snapshot{})
	}
}
