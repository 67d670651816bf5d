package chatstream

import (
	"strings"
	"unicode/utf8"
)

// Accumulator owns the raw text of one assistant pass and the length of its
// prefix that is safe to display. It is append-only and has a single writer.
type Accumulator struct {
	buf  strings.Builder
	safe int
}

// Append adds a chunk to the raw text.
func (a *Accumulator) Append(chunk string) {
	a.buf.WriteString(chunk)
}

// Text returns the raw text received so far.
func (a *Accumulator) Text() string { return a.buf.String() }

// Len returns the raw length in bytes.
func (a *Accumulator) Len() int { return a.buf.Len() }

// Safe returns the current safe-to-display prefix length.
func (a *Accumulator) Safe() int { return a.safe }

// Reveal recomputes the safe prefix, withholding any trailing partial marker
// from tokens (at least minimumBuffer bytes when one is present), and
// returns the safe prefix. The safe length never decreases, never exceeds
// the raw length and never ends inside a multi-byte rune.
func (a *Accumulator) Reveal(tokens MarkerSet, minimumBuffer int) string {
	text := a.buf.String()
	safe := max(len(text)-PartialSuffixLength(text, tokens, minimumBuffer), 0)
	if i := lastRuneStart(text); !utf8.FullRuneInString(text[i:]) {
		// An incomplete trailing rune stays hidden until its remaining
		// bytes arrive.
		safe = min(safe, i)
	}
	for safe > 0 && safe < len(text) && !utf8.RuneStart(text[safe]) {
		safe--
	}
	if safe > a.safe {
		a.safe = safe
	}
	return text[:a.safe]
}

// Truncate sets the safe prefix to n, used when a full marker is found at
// offset n. It is the only operation that may shrink the safe prefix.
func (a *Accumulator) Truncate(n int) string {
	text := a.buf.String()
	a.safe = min(max(n, 0), len(text))
	return text[:a.safe]
}

// Reset discards all text.
func (a *Accumulator) Reset() {
	a.buf.Reset()
	a.safe = 0
}

func lastRuneStart(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if utf8.RuneStart(s[i]) {
			return i
		}
	}
	return 0
}
