package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"docchat/internal/config"
	"docchat/internal/extract"
	"docchat/internal/providers"
	"docchat/internal/store"

	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	pages []string
	err   error
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(path string) ([]string, error) {
	return f.pages, f.err
}

type countingEmbedder struct {
	inner providers.EmbeddingProvider
	calls int
	fail  bool
}

func (c *countingEmbedder) Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	c.calls++
	if c.fail {
		return nil, providers.ProviderInfo{Name: "counting"}, errors.New("embedding service unavailable")
	}
	return c.inner.Embed(ctx, req)
}

type countingCompletion struct {
	inner providers.CompletionProvider
	calls int
}

func (c *countingCompletion) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error) {
	c.calls++
	return c.inner.Complete(ctx, req)
}

type erroringEmbedder struct {
	msg   string
	calls int
}

func (e *erroringEmbedder) Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	e.calls++
	return nil, providers.ProviderInfo{Name: "erroring"}, errors.New(e.msg)
}

type fixture struct {
	svc        *Service
	sessions   *store.Store
	embedder   *countingEmbedder
	completion *countingCompletion
}

func newFixture(t *testing.T, extractor extract.Extractor) *fixture {
	t.Helper()
	cfg := config.Config{
		ChunkSize:    100,
		ChunkOverlap: 10,
		TopK:         4,
		MaxDocuments: 3,
		EmbedDim:     64,
	}
	mock := providers.NewMockProvider(cfg.EmbedDim)
	embedder := &countingEmbedder{inner: mock}
	completion := &countingCompletion{inner: mock}
	pm := providers.NewManagerFromProviders(
		[]providers.NamedCompletionProvider{{Ref: providers.ProviderRef{Raw: "mock", Name: "mock"}, Provider: completion}},
		[]providers.NamedEmbedProvider{{Ref: providers.ProviderRef{Raw: "mock", Name: "mock"}, Provider: embedder}},
	)
	sessions := store.New(time.Hour, time.Hour)
	return &fixture{
		svc:        New(cfg, sessions, pm, extract.NewChain(extractor)),
		sessions:   sessions,
		embedder:   embedder,
		completion: completion,
	}
}

func TestIngestUploadLimit(t *testing.T) {
	f := newFixture(t, &fakeExtractor{pages: []string{"some document text"}})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.IngestDocument(ctx, "s1", "doc.pdf", "/tmp/doc.pdf")
		require.NoError(t, err)
	}

	_, err := f.svc.IngestDocument(ctx, "s1", "fourth.pdf", "/tmp/fourth.pdf")
	require.ErrorIs(t, err, ErrUploadLimit)

	_ = f.sessions.WithSession("s1", func(sess *store.Session) error {
		require.Len(t, sess.Filenames, 3)
		require.Equal(t, len(sess.Chunks), sess.Index.Len())
		return nil
	})
}

func TestIngestUnsupportedFormat(t *testing.T) {
	f := newFixture(t, &fakeExtractor{pages: []string{"text"}})
	_, err := f.svc.IngestDocument(context.Background(), "s1", "notes.txt", "/tmp/notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIngestEmptyDocumentIsProcessedButEmpty(t *testing.T) {
	f := newFixture(t, &fakeExtractor{pages: []string{"", "   "}})
	res, err := f.svc.IngestDocument(context.Background(), "s1", "blank.pdf", "/tmp/blank.pdf")
	require.NoError(t, err)
	require.Equal(t, []string{"blank.pdf"}, res.Filenames)
	require.Zero(t, res.ChunkCount)
	require.Zero(t, res.IndexSize)
	require.Contains(t, res.Message, "no text")

	// No index exists yet, so asking still reports no documents.
	_, err = f.svc.Ask(context.Background(), "s1", "what is this about?")
	require.ErrorIs(t, err, ErrNoDocuments)
}

func TestIngestExtractionFailureCommitsNothing(t *testing.T) {
	f := newFixture(t, &fakeExtractor{err: errors.New("corrupt xref")})
	_, err := f.svc.IngestDocument(context.Background(), "s1", "bad.pdf", "/tmp/bad.pdf")
	require.Error(t, err)

	_ = f.sessions.WithSession("s1", func(sess *store.Session) error {
		require.Empty(t, sess.Filenames)
		require.Empty(t, sess.Chunks)
		require.Nil(t, sess.Index)
		return nil
	})
}

func TestIngestEmbedFailurePreservesPreviousIndex(t *testing.T) {
	f := newFixture(t, &fakeExtractor{pages: []string{"first document text"}})
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, "s1", "a.pdf", "/tmp/a.pdf")
	require.NoError(t, err)

	f.embedder.fail = true
	_, err = f.svc.IngestDocument(ctx, "s1", "b.pdf", "/tmp/b.pdf")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUploadLimit)

	_ = f.sessions.WithSession("s1", func(sess *store.Session) error {
		require.Equal(t, []string{"a.pdf"}, sess.Filenames)
		require.Equal(t, len(sess.Chunks), sess.Index.Len())
		return nil
	})
}

func newFailoverFixture(t *testing.T, first *erroringEmbedder) (*Service, *countingEmbedder) {
	t.Helper()
	cfg := config.Config{
		ChunkSize:    100,
		ChunkOverlap: 10,
		TopK:         4,
		MaxDocuments: 3,
		EmbedDim:     64,
	}
	mock := providers.NewMockProvider(cfg.EmbedDim)
	fallback := &countingEmbedder{inner: mock}
	pm := providers.NewManagerFromProviders(
		[]providers.NamedCompletionProvider{{Ref: providers.ProviderRef{Raw: "mock", Name: "mock"}, Provider: mock}},
		[]providers.NamedEmbedProvider{
			{Ref: providers.ProviderRef{Raw: "erroring", Name: "erroring"}, Provider: first},
			{Ref: providers.ProviderRef{Raw: "mock", Name: "mock"}, Provider: fallback},
		},
	)
	sessions := store.New(time.Hour, time.Hour)
	extractor := &fakeExtractor{pages: []string{"some document text"}}
	return New(cfg, sessions, pm, extract.NewChain(extractor)), fallback
}

func TestEmbedFailoverOnTransientError(t *testing.T) {
	first := &erroringEmbedder{msg: "service temporarily unavailable"}
	svc, fallback := newFailoverFixture(t, first)

	res, err := svc.IngestDocument(context.Background(), "s1", "a.pdf", "/tmp/a.pdf")
	require.NoError(t, err)
	require.Positive(t, res.IndexSize)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestEmbedPermanentErrorStopsFailover(t *testing.T) {
	first := &erroringEmbedder{msg: "invalid request payload"}
	svc, fallback := newFailoverFixture(t, first)

	_, err := svc.IngestDocument(context.Background(), "s1", "a.pdf", "/tmp/a.pdf")
	require.Error(t, err)
	require.Equal(t, 1, first.calls)
	require.Zero(t, fallback.calls)
}

func TestAskWithoutDocumentsNeverCallsProviders(t *testing.T) {
	f := newFixture(t, &fakeExtractor{pages: []string{"text"}})
	_, err := f.svc.Ask(context.Background(), "fresh", "what is this?")
	require.ErrorIs(t, err, ErrNoDocuments)
	require.Zero(t, f.embedder.calls)
	require.Zero(t, f.completion.calls)
}

func TestAskEmptyQuestion(t *testing.T) {
	f := newFixture(t, &fakeExtractor{pages: []string{"text"}})
	_, err := f.svc.Ask(context.Background(), "s1", "   ")
	require.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestEndToEndAccumulatesAcrossUploads(t *testing.T) {
	extractor := &fakeExtractor{pages: []string{"zebra migration patterns"}}
	f := newFixture(t, extractor)
	ctx := context.Background()

	resA, err := f.svc.IngestDocument(ctx, "s1", "a.pdf", "/tmp/a.pdf")
	require.NoError(t, err)
	require.Positive(t, resA.ChunkCount)

	answer, err := f.svc.Ask(ctx, "s1", "where do zebras migrate?")
	require.NoError(t, err)
	require.NotEmpty(t, answer.Answer)
	require.LessOrEqual(t, len(answer.Suggestions), 3)

	extractor.pages = []string{"quantum computing basics"}
	resB, err := f.svc.IngestDocument(ctx, "s1", "b.pdf", "/tmp/b.pdf")
	require.NoError(t, err)
	require.Equal(t, resA.ChunkCount+resB.ChunkCount, resB.IndexSize)

	// Retrieval over the combined index can surface chunks from either
	// document: a query embedded from a chunk's exact text ranks that
	// chunk first under the deterministic mock embedder.
	_ = f.sessions.WithSession("s1", func(sess *store.Session) error {
		for text, want := range map[string]string{
			"zebra migration patterns": "a.pdf",
			"quantum computing basics": "b.pdf",
		} {
			vecs, _, err := f.embedder.Embed(ctx, providers.EmbedRequest{Inputs: []string{text}, Dimension: 64})
			require.NoError(t, err)
			hits := sess.Index.Search(vecs[0], 1)
			require.Len(t, hits, 1)
			require.Equal(t, want, hits[0].Chunk.Filename)
		}
		return nil
	})
}

func TestClearSessionIsIdempotent(t *testing.T) {
	f := newFixture(t, &fakeExtractor{pages: []string{"document text"}})
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, "s1", "a.pdf", "/tmp/a.pdf")
	require.NoError(t, err)

	f.svc.ClearSession("s1")
	f.svc.ClearSession("s1")
	f.svc.ClearSession("never-seen")

	_, err = f.svc.Ask(ctx, "s1", "anything left?")
	require.ErrorIs(t, err, ErrNoDocuments)
}
