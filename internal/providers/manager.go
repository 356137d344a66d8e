package providers

import (
	"fmt"
	"strings"

	"docchat/internal/config"
)

type NamedCompletionProvider struct {
	Ref      ProviderRef
	Provider CompletionProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager owns the configured provider chains. Real providers come
// first in preferred order; the mock provider is always available as a
// degraded fallback so the service never refuses to start.
type Manager struct {
	completionProviders []NamedCompletionProvider
	embedProviders      []NamedEmbedProvider
}

func NewManager(cfg config.Config) (*Manager, error) {
	llmRefs := ParseProviderList(cfg.LLMProviders)
	embedRefs := ParseProviderList(cfg.EmbedProviders)

	m := &Manager{}
	for _, ref := range llmRefs {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(CompletionProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support completion", ref.Raw)
		}
		m.completionProviders = append(m.completionProviders, NamedCompletionProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range embedRefs {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	if len(m.completionProviders) == 0 {
		m.completionProviders = []NamedCompletionProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = []NamedEmbedProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	return m, nil
}

// NewManagerFromProviders wires explicit providers, bypassing the
// configured lists. Intended for tests and diagnostic tooling.
func NewManagerFromProviders(llms []NamedCompletionProvider, embeds []NamedEmbedProvider) *Manager {
	return &Manager{completionProviders: llms, embedProviders: embeds}
}

func (m *Manager) CompletionProviderByIndex(i int) (CompletionProvider, ProviderRef) {
	if i < 0 || i >= len(m.completionProviders) {
		i = 0
	}
	return m.completionProviders[i].Provider, m.completionProviders[i].Ref
}

func (m *Manager) EmbedProviderByIndex(i int) (EmbeddingProvider, ProviderRef) {
	if i < 0 || i >= len(m.embedProviders) {
		i = 0
	}
	return m.embedProviders[i].Provider, m.embedProviders[i].Ref
}

// PreferredCompletionOrder lists provider indexes with mocks pushed to
// the back, so real providers are tried first.
func (m *Manager) PreferredCompletionOrder() []int {
	return preferredOrder(len(m.completionProviders), func(i int) string {
		return strings.ToLower(m.completionProviders[i].Ref.Name)
	})
}

func (m *Manager) PreferredEmbedOrder() []int {
	return preferredOrder(len(m.embedProviders), func(i int) string {
		return strings.ToLower(m.embedProviders[i].Ref.Name)
	})
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
