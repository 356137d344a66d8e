package extract

import (
	"errors"
	"strings"
	"testing"
)

type stubExtractor struct {
	name  string
	pages []string
	err   error
	calls int
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Extract(path string) ([]string, error) {
	s.calls++
	return s.pages, s.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	primary := &stubExtractor{name: "primary", pages: []string{"page one", ""}}
	fallback := &stubExtractor{name: "fallback", pages: []string{"unused"}}
	c := NewChain(primary, fallback)

	pages, err := c.Extract("doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0] != "page one" {
		t.Fatalf("unexpected pages: %#v", pages)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not run after primary success")
	}
}

func TestChainFallsBackOnFailure(t *testing.T) {
	primary := &stubExtractor{name: "primary", err: errors.New("corrupt xref")}
	fallback := &stubExtractor{name: "fallback", pages: []string{"recovered text"}}
	c := NewChain(primary, fallback)

	pages, err := c.Extract("doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0] != "recovered text" {
		t.Fatalf("unexpected pages: %#v", pages)
	}
}

func TestChainAggregatesAllFailures(t *testing.T) {
	primary := &stubExtractor{name: "primary", err: errors.New("corrupt xref")}
	fallback := &stubExtractor{name: "fallback", err: errors.New("no content streams")}
	c := NewChain(primary, fallback)

	_, err := c.Extract("doc.pdf")
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "corrupt xref") || !strings.Contains(msg, "no content streams") {
		t.Fatalf("expected both failures in error, got: %v", err)
	}
}

func TestDecodeContentText(t *testing.T) {
	stream := "BT /F1 12 Tf (Hello \\(world\\)) Tj (second line) Tj ET"
	got := decodeContentText(stream)
	if got != "Hello (world) second line" {
		t.Fatalf("unexpected decoded text: %q", got)
	}
}
