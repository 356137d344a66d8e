package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type CompletionRequest struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
}

type CompletionResponse struct {
	Text string `json:"text"`
}

type EmbedRequest struct {
	Operation string   `json:"operation"`
	Inputs    []string `json:"inputs"`
	Dimension int      `json:"dimension"`
}

// CompletionProvider generates free-form text from a single prompt.
// Calls are stateless; each request stands alone.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error)
}

// EmbeddingProvider converts texts into fixed-dimension vectors.
type EmbeddingProvider interface {
	Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error)
}
