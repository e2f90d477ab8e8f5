package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"neurabuddy/internal/cache"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultEmbeddingTTL = 168 * time.Hour

// CachedEmbeddingService memoises embeddings in the cache, gob-encoded and
// keyed by provider and text hash. Concurrent misses for the same text share
// one upstream call.
type CachedEmbeddingService struct {
	next     domain.EmbeddingService
	cache    domain.Cache
	provider string
	ttl      time.Duration
	sfGroup  singleflight.Group
}

func NewCachedEmbeddingService(next domain.EmbeddingService, c domain.Cache, provider string, ttl time.Duration) (*CachedEmbeddingService, error) {
	if next == nil {
		return nil, fmt.Errorf("embedding service cannot be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("cache instance cannot be nil for CachedEmbeddingService")
	}
	if ttl <= 0 {
		ttl = defaultEmbeddingTTL
	}
	return &CachedEmbeddingService{next: next, cache: c, provider: provider, ttl: ttl}, nil
}

func (s *CachedEmbeddingService) key(text string) string {
	return cache.GenerateCacheKey("embedding", s.provider, cache.HashText(text))
}

func (s *CachedEmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader([]byte(raw))).Decode(&vec); err != nil || len(vec) == 0 {
		logger.Get().Warn("Discarding undecodable cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (s *CachedEmbeddingService) store(ctx context.Context, key string, vec []float32) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vec); err != nil {
		logger.Get().Warn("Failed to encode embedding for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, buf.String(), s.ttl); err != nil {
		logger.Get().Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

// Generate returns the cached embedding or computes and caches it.
func (s *CachedEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if vec, ok := s.lookup(ctx, key); ok {
		return vec, nil
	}

	res, err, _ := s.sfGroup.Do(key, func() (interface{}, error) {
		vec, err := s.next.Generate(ctx, text)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	vec, ok := res.([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight.Do for embedding: %T", res)
	}
	return vec, nil
}

// GenerateBatch serves hits from the cache and embeds the misses in a single
// upstream batch.
func (s *CachedEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		if vec, ok := s.lookup(ctx, s.key(t)); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := s.next.GenerateBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding batch size mismatch: got %d, want %d", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		s.store(ctx, s.key(texts[i]), vecs[j])
	}
	return out, nil
}
