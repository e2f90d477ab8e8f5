package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockTextGenerator ---
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

// systemContains matches prompts whose system text contains every fragment.
func systemContains(fragments ...string) interface{} {
	return mock.MatchedBy(func(p domain.Prompt) bool {
		for _, f := range fragments {
			if !strings.Contains(p.System, f) {
				return false
			}
		}
		return true
	})
}

// --- MockSearcher ---
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, topK int, filter domain.Filter, minScore float64) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, query, topK, filter, minScore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

func (m *MockSearcher) Stats(ctx context.Context) (domain.IndexStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.IndexStats), args.Error(1)
}

// emptySearcher returns a searcher with nothing indexed.
func emptySearcher() *MockSearcher {
	s := new(MockSearcher)
	s.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.ScoredChunk{}, nil)
	s.On("Stats", mock.Anything).Return(domain.IndexStats{CollectionName: "test"}, nil)
	return s
}

// searcherWith returns chunks for every search.
func searcherWith(chunks ...domain.ScoredChunk) *MockSearcher {
	s := new(MockSearcher)
	s.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(chunks, nil)
	s.On("Stats", mock.Anything).Return(domain.IndexStats{TotalChunks: len(chunks), CollectionName: "test"}, nil)
	return s
}

// --- MockEmbeddingService ---
type MockEmbeddingService struct {
	mock.Mock
}

func (m *MockEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// memoryCache is a map-backed domain.Cache.
type memoryCache struct {
	mu     sync.Mutex
	values   map[string]string
	hashes   map[string]map[string]string
	counters map[string]int64
	pings    error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, hashes: map[string]map[string]string{}, counters: map[string]int64{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.hashes, key)
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return c.pings }

func (c *memoryCache) HGet(_ context.Context, key, field string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.hashes[key][field]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) HGetAll(_ context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]string{}
	for k, v := range c.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (c *memoryCache) HSet(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hashes[key] == nil {
		c.hashes[key] = map[string]string{}
	}
	c.hashes[key][field] = value
	return nil
}

func (c *memoryCache) HDel(_ context.Context, key string, fields ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, f := range fields {
		if _, ok := c.hashes[key][f]; ok {
			delete(c.hashes[key], f)
			n++
		}
	}
	return n, nil
}

func (c *memoryCache) HLen(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.hashes[key])), nil
}

func (c *memoryCache) Expire(context.Context, string, time.Duration) error { return nil }

func (c *memoryCache) HSetIncr(_ context.Context, key string, values map[string]string, counter string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hashes[key] == nil {
		c.hashes[key] = map[string]string{}
	}
	for f, v := range values {
		c.hashes[key][f] = v
	}
	c.counters[counter]++
	return c.counters[counter], nil
}

func (c *memoryCache) HDelIncr(_ context.Context, key, counter string, fields ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, f := range fields {
		if _, ok := c.hashes[key][f]; ok {
			delete(c.hashes[key], f)
			n++
		}
	}
	c.counters[counter]++
	return n, nil
}

var _ domain.Cache = (*memoryCache)(nil)

func testConfig() *config.Config {
	return &config.Config{
		Index: config.IndexConfig{
			Collection:       "test",
			TopK:             5,
			MinScore:         0.7,
			RelaxedMinScore:  0.3,
			FallbackMinScore: 0.2,
		},
		Session: config.SessionConfig{MaxHints: 3},
		Quiz: config.QuizConfig{
			DefaultQuestions:            5,
			MaxQuestions:                20,
			Concurrency:                 4,
			FeedbackSimilarityThreshold: 0.95,
		},
	}
}

func chunkFixture(id, structure, content string) domain.ScoredChunk {
	return domain.ScoredChunk{
		ID:      id,
		Content: content,
		Score:   0.9,
		Metadata: domain.ChunkMetadata{
			StructureName:     structure,
			System:            domain.SystemLimbic,
			DifficultyLevel:   domain.DifficultyUndergrad,
			ClinicalRelevance: true,
			Source:            "test-doc",
			ChunkID:           id,
		},
	}
}
