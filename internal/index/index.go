// Package index holds a session's disposable vector index: every chunk
// embedded once at build time, brute-force cosine search at query time.
// An index is never mutated after Build; new uploads build a replacement
// over the cumulative chunk set.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"docchat/internal/models"
	"docchat/internal/providers"
)

type Result struct {
	Chunk models.Chunk
	Score float64
}

type Index struct {
	vectors [][]float32
	chunks  []models.Chunk
}

// Build embeds every chunk in one provider call and pairs the vectors
// with their chunks. Any embedding failure aborts the build; the caller
// keeps using its previous index.
func Build(ctx context.Context, chunks []models.Chunk, embedder providers.EmbeddingProvider, dim int) (*Index, error) {
	inputs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		inputs = append(inputs, c.Text)
	}
	vectors, _, err := embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "index_build",
		Inputs:    inputs,
		Dimension: dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}
	snapshot := make([]models.Chunk, len(chunks))
	copy(snapshot, chunks)
	return &Index{vectors: vectors, chunks: snapshot}, nil
}

func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.chunks)
}

// Search returns the k most similar chunks to the query vector, highest
// score first. Ties keep insertion order.
func (x *Index) Search(query []float32, k int) []Result {
	if x == nil || len(x.chunks) == 0 {
		return nil
	}
	if k <= 0 {
		k = 4
	}
	results := make([]Result, 0, len(x.chunks))
	for i := range x.vectors {
		results = append(results, Result{Chunk: x.chunks[i], Score: cosine(x.vectors[i], query)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
