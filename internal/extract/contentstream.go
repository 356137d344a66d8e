package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ContentStreamExtractor is the fallback strategy. pdfcpu has no direct
// text extraction, so it dumps raw page content streams to a scratch
// directory and pulls the literal strings out of the text operators.
type ContentStreamExtractor struct {
	scratchDir string
}

var textLiteral = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*(?:Tj|'|")`)

func NewContentStreamExtractor() *ContentStreamExtractor {
	return &ContentStreamExtractor{scratchDir: filepath.Join(os.TempDir(), "docchat-extract")}
}

func (e *ContentStreamExtractor) Name() string { return "pdfcpu" }

func (e *ContentStreamExtractor) Extract(path string) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp(e.scratchDir, "pages-")
	if err != nil {
		if mkErr := os.MkdirAll(e.scratchDir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("scratch dir: %w", mkErr)
		}
		if outDir, err = os.MkdirTemp(e.scratchDir, "pages-"); err != nil {
			return nil, fmt.Errorf("scratch dir: %w", err)
		}
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}
	pageTexts := make(map[int]string, pageCount)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var pageNum int
		name := entry.Name()
		if _, err := fmt.Sscanf(name, "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(name, "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		content, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = decodeContentText(string(content))
	}

	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		pages = append(pages, pageTexts[i])
	}
	return pages, nil
}

// decodeContentText pulls string literals shown by Tj / ' / " operators
// out of a raw content stream. Hex strings and font-encoded glyphs are
// beyond this fallback's reach.
func decodeContentText(stream string) string {
	matches := textLiteral.FindAllStringSubmatch(stream, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, unescapeLiteral(m[1]))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func unescapeLiteral(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n",
		`\r`, "\r",
		`\t`, "\t",
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
	)
	return replacer.Replace(s)
}
