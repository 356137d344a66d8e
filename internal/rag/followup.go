package rag

import (
	"regexp"
	"strings"
)

const maxSuggestions = 3

var numberedLine = regexp.MustCompile(`(?m)^\d+\.\s+(.*)$`)

// ParseSuggestions extracts follow-up questions from a numbered-list
// model response. The model is an untrusted collaborator: lines that do
// not match the pattern are ignored, and zero matches is a valid result,
// not a failure.
func ParseSuggestions(text string) []string {
	matches := numberedLine.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		q := strings.TrimSpace(m[1])
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
