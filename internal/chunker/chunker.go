package chunker

import (
	"strings"

	"docchat/internal/models"
)

// Separators are tried coarsest first: section break, line break,
// sentence end, word boundary, then raw runes as a last resort.
var separators = []string{"\n\n", "\n", ". ", " "}

// Split breaks text into chunks of at most size runes, each carrying up
// to overlap trailing runes of its predecessor so context is not severed
// at chunk boundaries. Output is deterministic for a given input.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	units := splitUnits(text, separators, size)
	out := make([]string, 0)
	cur := make([]rune, 0, size)
	seedLen := 0

	flush := func() {
		part := strings.TrimSpace(string(cur))
		if part != "" {
			out = append(out, part)
		}
	}

	for _, u := range units {
		r := []rune(u)
		if len(cur)+len(r) > size {
			if len(cur) > seedLen {
				flush()
				seed := cur[max(0, len(cur)-overlap):]
				cur = append(make([]rune, 0, size), seed...)
				seedLen = len(cur)
			}
			if len(cur)+len(r) > size {
				// seed plus unit would still overrun the target size
				cur = cur[:0]
				seedLen = 0
			}
		}
		cur = append(cur, r...)
	}
	if len(cur) > seedLen {
		flush()
	}
	return out
}

// Document chunks the ordered pages of one document and tags every chunk
// with its source filename and position. An empty document yields nil.
func Document(filename string, pages []string, size, overlap int) []models.Chunk {
	chunks := make([]models.Chunk, 0)
	ordinal := 0
	for _, page := range pages {
		for _, part := range Split(page, size, overlap) {
			chunks = append(chunks, models.Chunk{
				Filename: filename,
				Ordinal:  ordinal,
				Text:     part,
			})
			ordinal++
		}
	}
	if len(chunks) == 0 {
		return nil
	}
	return chunks
}

// splitUnits recursively cuts text into pieces no longer than size runes,
// preferring the coarsest separator that keeps a piece intact.
func splitUnits(text string, seps []string, size int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	if len(seps) == 0 {
		// rune-level fallback so the merge pass controls window and overlap
		out := make([]string, 0, len(runes))
		for _, r := range runes {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.SplitAfter(text, seps[0])
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len([]rune(p)) <= size {
			out = append(out, p)
			continue
		}
		out = append(out, splitUnits(p, seps[1:], size)...)
	}
	return out
}
