package bubbletea

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// terminalSafe strips escape sequences and control characters from model or
// user text before it reaches the terminal. Tabs and newlines are kept; CRLF
// becomes LF and a lone CR is dropped.
func terminalSafe(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || (r > 0x1F && r != 0x7F) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
