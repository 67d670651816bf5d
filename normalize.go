package chatstream

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	searchBlockRe = regexp.MustCompile(`(?is)\[SEARCH\].*?\[/SEARCH\]`)
	searchTagRe   = regexp.MustCompile(`(?i)\[/?SEARCH\]`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// roleMarkers are the turn markers other than the assistant close marker.
var roleMarkers = MarkerSet{MarkerUserClose, MarkerUserOpen, MarkerAssistantOpen}

// SanitizeForDisplay prepares text for display. It removes search directive
// blocks and stray search tags, replaces non-breaking spaces, collapses runs
// of three or more newlines to two, trims surrounding whitespace and drops a
// trailing partial marker. The result is a fixed point: sanitizing it again
// returns it unchanged.
func SanitizeForDisplay(text string) string {
	for {
		next := sanitizeOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func sanitizeOnce(s string) string {
	s = searchBlockRe.ReplaceAllString(s, "")
	s = searchTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	if n := PartialSuffixLength(s, AllMarkers, 0); n > 0 {
		s = strings.TrimRightFunc(s[:len(s)-n], unicode.IsSpace)
	}
	return s
}

// FinalizeDisplayText produces the final display text of a turn. A blank raw
// text is replaced by fallback. A close marker in any casing is
// canonicalized; when the text has no close marker and no other role marker
// one is appended. The close marker is then stripped and the text sanitized.
//
// The generator cuts text at the earliest StopMarkers entry, which includes
// the open markers, so a dangling next-turn marker only reaches this function
// from direct callers.
func FinalizeDisplayText(raw, fallback string) string {
	text := raw
	if strings.TrimSpace(text) == "" {
		text = fallback
	}
	switch {
	case IndexFold(text, MarkerAssistantClose) >= 0:
		text = replaceFold(text, MarkerAssistantClose, MarkerAssistantClose)
	case !roleMarkers.Contains(text):
		text += MarkerAssistantClose
	}
	text = strings.ReplaceAll(text, MarkerAssistantClose, "")
	return SanitizeForDisplay(text)
}
