package chatstream

// In-band markers used by the prompt grammar and recognized in model output.
// All matching against them is ASCII case-insensitive.
const (
	MarkerUserOpen       = "[USER]"
	MarkerUserClose      = "[/USER]"
	MarkerAssistantOpen  = "[ASSISTANT]"
	MarkerAssistantClose = "[/ASSISTANT]"
	MarkerSearchOpen     = "[SEARCH]"
	MarkerSearchClose    = "[/SEARCH]"
)

// MarkerSet is an ordered set of marker tokens. Order matters only for
// breaking ties between markers found at the same offset.
type MarkerSet []string

var (
	// StopMarkers end an assistant turn. Besides the close markers for
	// both roles it contains the open markers, which appear when a model
	// starts writing the next turn on its own. Text is cut before them, so
	// they never reach FinalizeDisplayText from the generator.
	StopMarkers = MarkerSet{
		MarkerAssistantClose,
		MarkerUserClose,
		MarkerUserOpen,
		MarkerAssistantOpen,
	}

	// ToolMarkers delimit the search directive.
	ToolMarkers = MarkerSet{MarkerSearchOpen, MarkerSearchClose}

	// AllMarkers is every marker that must never leak into display text,
	// partially or whole.
	AllMarkers = MarkerSet{
		MarkerAssistantClose,
		MarkerUserClose,
		MarkerUserOpen,
		MarkerAssistantOpen,
		MarkerSearchOpen,
		MarkerSearchClose,
	}
)

// Contains reports whether text contains any marker of the set.
func (s MarkerSet) Contains(text string) bool {
	for _, m := range s {
		if IndexFold(text, m) >= 0 {
			return true
		}
	}
	return false
}

// IndexStopMarker returns the offset of the earliest stop marker in text and
// the marker found there, or -1 and "" when text contains none.
func IndexStopMarker(text string) (int, string) {
	return StopMarkers.Index(text)
}

// Index returns the offset of the earliest marker of the set in text and the
// canonical marker, or -1 and "".
func (s MarkerSet) Index(text string) (int, string) {
	best, found := -1, ""
	for _, m := range s {
		i := IndexFold(text, m)
		if i < 0 {
			continue
		}
		if best < 0 || i < best {
			best, found = i, m
		}
	}
	return best, found
}

// EqualFold reports whether a and b are equal under ASCII case folding.
// Only ASCII letters fold, so byte offsets are preserved.
func EqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

// HasPrefixFold reports whether s begins with prefix under ASCII case folding.
func HasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && EqualFold(s[:len(prefix)], prefix)
}

// IndexFold returns the index of the first ASCII case-insensitive occurrence
// of substr in s, or -1.
func IndexFold(s, substr string) int {
	n := len(substr)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(s); i++ {
		if lower(s[i]) == lower(substr[0]) && EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

// EscapeMarkers rewrites every marker in text, in any casing, with
// parentheses instead of brackets so that quoted or retrieved text cannot
// open or close a turn when embedded in a prompt.
func EscapeMarkers(text string) string {
	for _, m := range AllMarkers {
		text = replaceFold(text, m, "("+m[1:len(m)-1]+")")
	}
	return text
}

// replaceFold replaces every ASCII case-insensitive occurrence of old in s
// with repl.
func replaceFold(s, old, repl string) string {
	i := IndexFold(s, old)
	if i < 0 {
		return s
	}
	var out []byte
	for i >= 0 {
		out = append(out, s[:i]...)
		out = append(out, repl...)
		s = s[i+len(old):]
		i = IndexFold(s, old)
	}
	out = append(out, s...)
	return string(out)
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
