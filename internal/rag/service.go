// Package rag is the core surface of the service: per-session document
// ingestion, retrieval-grounded question answering, and follow-up
// suggestion. The HTTP layer is a thin wrapper over this package.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/extract"
	"docchat/internal/index"
	"docchat/internal/models"
	"docchat/internal/providers"
	"docchat/internal/store"
)

type Service struct {
	cfg        config.Config
	sessions   *store.Store
	providers  *providers.Manager
	extractors *extract.Chain
}

type IngestResult struct {
	Filename   string   `json:"filename"`
	Filenames  []string `json:"filenames"`
	ChunkCount int      `json:"chunk_count"`
	IndexSize  int      `json:"index_size"`
	Message    string   `json:"message"`
}

func New(cfg config.Config, sessions *store.Store, pm *providers.Manager, extractors *extract.Chain) *Service {
	return &Service{cfg: cfg, sessions: sessions, providers: pm, extractors: extractors}
}

// IngestDocument extracts, chunks, and accumulates one uploaded document,
// then rebuilds the session's vector index over the cumulative chunk set.
// Nothing is committed on failure: a failed extraction or rebuild leaves
// filenames, chunks, and the previous index untouched.
func (s *Service) IngestDocument(ctx context.Context, sessionID, filename, path string) (IngestResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return IngestResult{}, ErrUnsupportedFormat
	}

	var res IngestResult
	err := s.sessions.WithSession(sessionID, func(sess *store.Session) error {
		if len(sess.Filenames) >= s.cfg.MaxDocuments {
			return ErrUploadLimit
		}

		pages, err := s.extractors.Extract(path)
		if err != nil {
			return fmt.Errorf("extract %s: %w", filename, err)
		}

		newChunks := chunker.Document(filename, pages, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
		if len(newChunks) == 0 {
			// Processed but empty: record the upload, keep the index as is.
			sess.Filenames = append(sess.Filenames, filename)
			res = IngestResult{
				Filename:  filename,
				Filenames: append([]string(nil), sess.Filenames...),
				IndexSize: sess.Index.Len(),
				Message:   fmt.Sprintf("Added '%s', but no text could be extracted from it.", filename),
			}
			return nil
		}

		cumulative := make([]models.Chunk, 0, len(sess.Chunks)+len(newChunks))
		cumulative = append(cumulative, sess.Chunks...)
		cumulative = append(cumulative, newChunks...)

		idx, err := s.buildIndex(ctx, cumulative)
		if err != nil {
			return fmt.Errorf("rebuild index: %w", err)
		}

		sess.Filenames = append(sess.Filenames, filename)
		sess.Chunks = cumulative
		sess.Index = idx
		res = IngestResult{
			Filename:   filename,
			Filenames:  append([]string(nil), sess.Filenames...),
			ChunkCount: len(newChunks),
			IndexSize:  idx.Len(),
			Message:    uploadMessage(filename, len(sess.Filenames), s.cfg.MaxDocuments),
		}
		return nil
	})
	if err != nil {
		return IngestResult{}, err
	}
	return res, nil
}

// Ask retrieves the chunks most similar to the question, asks the
// completion provider for a grounded answer, and derives up to three
// follow-up questions from the question/answer pair.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (models.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.AnswerResult{}, ErrEmptyQuestion
	}

	var result models.AnswerResult
	err := s.sessions.WithSession(sessionID, func(sess *store.Session) error {
		if sess.Index.Len() == 0 {
			return ErrNoDocuments
		}

		queryVec, err := s.embedQuestion(ctx, question)
		if err != nil {
			return fmt.Errorf("embed question: %w", err)
		}

		hits := sess.Index.Search(queryVec, s.cfg.TopK)
		contextParts := make([]string, 0, len(hits))
		for _, h := range hits {
			contextParts = append(contextParts, h.Chunk.Text)
		}

		answerText, err := s.complete(ctx, "answer", answerPrompt(strings.Join(contextParts, "\n\n"), question))
		if err != nil {
			return fmt.Errorf("generate answer: %w", err)
		}
		answerText = strings.TrimSpace(answerText)

		followText, err := s.complete(ctx, "followups", followupPrompt(question, answerText))
		if err != nil {
			return fmt.Errorf("generate follow-up questions: %w", err)
		}

		result = models.AnswerResult{
			Answer:      answerText,
			Suggestions: ParseSuggestions(followText),
		}
		return nil
	})
	if err != nil {
		return models.AnswerResult{}, err
	}
	return result, nil
}

// ClearSession drops the session's documents and index. Idempotent.
func (s *Service) ClearSession(sessionID string) {
	s.sessions.Clear(sessionID)
}

func (s *Service) buildIndex(ctx context.Context, chunks []models.Chunk) (*index.Index, error) {
	var lastErr error
	for _, i := range s.providers.PreferredEmbedOrder() {
		p, ref := s.providers.EmbedProviderByIndex(i)
		idx, err := index.Build(ctx, chunks, p, s.cfg.EmbedDim)
		if err == nil {
			return idx, nil
		}
		lastErr = fmt.Errorf("%s: %w", ref.Raw, err)
		if !failover(err) {
			return nil, lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no embedding providers configured")
	}
	return nil, lastErr
}

func (s *Service) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	var lastErr error
	for _, i := range s.providers.PreferredEmbedOrder() {
		p, ref := s.providers.EmbedProviderByIndex(i)
		vecs, _, err := p.Embed(ctx, providers.EmbedRequest{
			Operation: "ask_query_embed",
			Inputs:    []string{question},
			Dimension: s.cfg.EmbedDim,
		})
		if err == nil && len(vecs) > 0 {
			return vecs[0], nil
		}
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", ref.Raw, err)
			if !failover(err) {
				return nil, lastErr
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no embedding providers configured")
	}
	return nil, lastErr
}

func (s *Service) complete(ctx context.Context, operation, prompt string) (string, error) {
	var lastErr error
	for _, i := range s.providers.PreferredCompletionOrder() {
		p, ref := s.providers.CompletionProviderByIndex(i)
		resp, _, err := p.Complete(ctx, providers.CompletionRequest{Operation: operation, Prompt: prompt})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp.Text, nil
		}
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", ref.Raw, err)
			if !failover(err) {
				return "", lastErr
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no completion providers produced text")
	}
	return "", lastErr
}

// failover reports whether a provider failure is worth handing to the
// next provider in preferred order. Provider-side pressure (quota,
// rate limits, outages) is; a permanent or context-size error would
// repeat on every provider.
func failover(err error) bool {
	switch providers.ClassifyError(err) {
	case providers.ErrorQuota, providers.ErrorRate, providers.ErrorTransient:
		return true
	default:
		return false
	}
}

func uploadMessage(filename string, used, max int) string {
	remaining := max - used
	if remaining <= 0 {
		return fmt.Sprintf("Maximum of %d PDFs added. You can now start asking questions.", max)
	}
	return fmt.Sprintf("Added '%s'. You can add %d more.", filename, remaining)
}
