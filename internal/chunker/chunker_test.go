package chunker

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitRuneWindows(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := Split(text, 10, 2)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %#v", len(chunks), chunks)
	}
	if chunks[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk: %s", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "ij") {
		t.Fatalf("expected 2-rune overlap, got %s", chunks[1])
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	text := strings.Repeat("alpha beta gamma. ", 10) + "\n\n" + strings.Repeat("delta epsilon. ", 10)
	chunks := Split(text, 200, 20)
	for _, c := range chunks {
		if len([]rune(c)) > 200 {
			t.Fatalf("chunk exceeds target size: %d runes", len([]rune(c)))
		}
	}
	if len(chunks) < 2 {
		t.Fatalf("expected paragraph split, got %d chunks", len(chunks))
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	a := Split(text, 100, 15)
	b := Split(text, 100, 15)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("chunking is not deterministic")
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := Split("", 100, 10); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(got))
	}
	if got := Split("   \n\t ", 100, 10); len(got) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(got))
	}
}

func TestDocumentTagsChunks(t *testing.T) {
	pages := []string{"first page text.", "second page text."}
	chunks := Document("a.pdf", pages, 100, 10)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Filename != "a.pdf" || c.Ordinal != i {
			t.Fatalf("bad chunk tag: %+v", c)
		}
	}
	if got := Document("b.pdf", []string{"", "  "}, 100, 10); got != nil {
		t.Fatalf("expected nil for empty document, got %#v", got)
	}
}
