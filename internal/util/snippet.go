package util

import "strings"

// Snippet collapses whitespace and truncates s to at most maxRunes runes,
// appending an ellipsis when text was cut.
func Snippet(s string, maxRunes int) string {
	s = SanitizeText(s)
	s = strings.Join(strings.Fields(s), " ")
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}
