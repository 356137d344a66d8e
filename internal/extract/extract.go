// Package extract turns an uploaded PDF into ordered pages of plain text.
// Extraction strategies are tried in priority order; the first one that
// yields any text wins, and a document that defeats every strategy
// surfaces a single aggregated error.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"docchat/internal/util"
)

// Extractor reads one document and returns its pages in order. A document
// that parses but contains no text returns an empty slice and no error.
type Extractor interface {
	Name() string
	Extract(path string) ([]string, error)
}

type Chain struct {
	extractors []Extractor
}

func NewChain(extractors ...Extractor) *Chain {
	if len(extractors) == 0 {
		extractors = []Extractor{NewPDFExtractor(), NewContentStreamExtractor()}
	}
	return &Chain{extractors: extractors}
}

func (c *Chain) Extract(path string) ([]string, error) {
	var failures []error
	for _, e := range c.extractors {
		pages, err := e.Extract(path)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		return cleanPages(pages), nil
	}
	return nil, fmt.Errorf("all extractors failed for %s: %w", path, errors.Join(failures...))
}

func cleanPages(pages []string) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		p = util.SanitizeText(p)
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
