package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

// LangchainEmbeddingService implements domain.EmbeddingService on top of a
// langchaingo embedder.
type LangchainEmbeddingService struct {
	embedder embeddings.Embedder
	provider string
}

// NewLangchainEmbeddingService wraps an existing embedder.
func NewLangchainEmbeddingService(embedder embeddings.Embedder, provider string) *LangchainEmbeddingService {
	return &LangchainEmbeddingService{embedder: embedder, provider: provider}
}

// Provider names the backing service; it namespaces cache keys.
func (s *LangchainEmbeddingService) Provider() string {
	return s.provider
}

// Generate creates an embedding for a single text.
func (s *LangchainEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using %s: %w", s.provider, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("received empty embedding from %s", s.provider)
	}
	return vec, nil
}

// GenerateBatch embeds texts in one call, preserving order.
func (s *LangchainEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate batch embeddings using %s: %w", s.provider, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d texts", s.provider, len(vecs), len(texts))
	}
	return vecs, nil
}
