package chatstream

// PartialSuffixLength returns how many trailing bytes of text must be
// withheld from display because they could be the beginning of one of the
// tokens.
//
// For every token the longest proper prefix (length 1..len(token)-1) that
// equals a suffix of text is found, ignoring ASCII case. The result is the
// maximum over all tokens, raised to minimumBuffer when any overlap exists,
// and 0 when none does. The result is not clamped to len(text).
func PartialSuffixLength(text string, tokens MarkerSet, minimumBuffer int) int {
	longest := 0
	for _, tok := range tokens {
		k := len(tok) - 1
		if k > len(text) {
			k = len(text)
		}
		for ; k > longest; k-- {
			if EqualFold(text[len(text)-k:], tok[:k]) {
				longest = k
				break
			}
		}
	}
	if longest == 0 {
		return 0
	}
	return max(longest, minimumBuffer)
}
