package providers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiProvider serves both embeddings and completions through the
// Gemini API. The client is created lazily so a missing key surfaces as
// a per-call error instead of blocking startup.
type GeminiProvider struct {
	alias      string
	apiKey     string
	embedModel string
	chatModel  string

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGeminiProvider(alias string) *GeminiProvider {
	return &GeminiProvider{
		alias:      alias,
		apiKey:     resolveGeminiKey(alias),
		embedModel: getenvDefault("DOCCHAT_GEMINI_EMBED_MODEL", "embedding-001"),
		chatModel:  getenvDefault("DOCCHAT_GEMINI_CHAT_MODEL", "gemini-1.5-flash-latest"),
	}
}

func (g *GeminiProvider) ensureClient(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("gemini key missing for alias %q", g.alias)
	}
	g.once.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.client, g.initErr
}

func (g *GeminiProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.embedModel, Key: g.alias}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	client, err := g.ensureClient(ctx)
	if err != nil {
		return nil, info, err
	}

	contents := make([]*genai.Content, 0, len(req.Inputs))
	for _, text := range req.Inputs {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}
	var embedCfg *genai.EmbedContentConfig
	if req.Dimension > 0 {
		dim := int32(req.Dimension)
		embedCfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	result, err := client.Models.EmbedContent(ctx, g.embedModel, contents, embedCfg)
	if err != nil {
		return nil, info, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(req.Inputs) {
		return nil, info, fmt.Errorf("gemini returned %d embeddings for %d inputs",
			embeddingCount(result), len(req.Inputs))
	}
	out := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		if len(e.Values) == 0 {
			return nil, info, fmt.Errorf("gemini returned empty embedding")
		}
		out = append(out, e.Values)
	}
	return out, info, nil
}

func (g *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.chatModel, Key: g.alias}
	client, err := g.ensureClient(ctx)
	if err != nil {
		return CompletionResponse{}, info, err
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.3)}
	resp, err := client.Models.GenerateContent(ctx, g.chatModel, contents, cfg)
	if err != nil {
		return CompletionResponse{}, info, fmt.Errorf("gemini completion request failed: %w", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return CompletionResponse{}, info, fmt.Errorf("gemini returned no text")
	}
	return CompletionResponse{Text: text.String()}, info, nil
}

func embeddingCount(r *genai.EmbedContentResponse) int {
	if r == nil {
		return 0
	}
	return len(r.Embeddings)
}

func resolveGeminiKey(alias string) string {
	if alias != "" {
		if k := os.Getenv("DOCCHAT_GEMINI_KEY_" + strings.ToUpper(alias)); k != "" {
			return k
		}
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func getenvDefault(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}
