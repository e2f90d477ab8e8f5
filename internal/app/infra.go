// Package app builds the shared infrastructure used by the server and the
// ingestion CLI.
package app

import (
	"fmt"

	"neurabuddy/internal/adapter"
	"neurabuddy/internal/adapter/embedding"
	"neurabuddy/internal/cache"
	"neurabuddy/internal/chunker"
	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/vectorindex"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Infrastructure is the storage and embedding layer. Cache is nil when
// Redis is not configured.
type Infrastructure struct {
	Cache    domain.Cache
	Embedder domain.EmbeddingService
	Index    *vectorindex.Index
	Chunker  *chunker.Chunker

	redis *redis.Client
}

// NewInfrastructure connects to Redis when configured, then builds the
// embedder, the vector index and the chunker.
func NewInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	log := logger.Get()
	infra := &Infrastructure{}

	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		infra.redis = client
		infra.Cache = adapter.NewRedisCacheAdapter(client)
		log.Info("Redis cache initialized", zap.String("address", cfg.Redis.Address))
	} else {
		log.Warn("Redis cache is not configured. Running without cache.")
	}

	embedder, err := newEmbedder(cfg.Embedding, infra.Cache)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.Embedder = embedder

	var backend vectorindex.Backend
	switch cfg.Index.Backend {
	case "redis":
		if infra.Cache == nil {
			infra.Close()
			return nil, fmt.Errorf("index.backend=redis requires a reachable redis")
		}
		backend = vectorindex.NewRedisBackend(infra.Cache, cfg.Index.Collection)
	default:
		backend = vectorindex.NewMemoryBackend()
	}
	infra.Index = vectorindex.New(embedder, backend, cfg.Index.Collection)
	log.Info("Vector index initialized",
		zap.String("backend", cfg.Index.Backend),
		zap.String("collection", cfg.Index.Collection),
	)

	counter, err := chunker.NewTiktokenCounter(cfg.Chunking.TokenizerName)
	if err != nil {
		log.Warn("Tokenizer unavailable, counting words instead", zap.Error(err))
		counter = chunker.WordCounter
	}
	infra.Chunker = chunker.New(cfg.Chunking, counter)
	return infra, nil
}

func newEmbedder(cfg config.EmbeddingConfig, c domain.Cache) (domain.EmbeddingService, error) {
	var base *embedding.LangchainEmbeddingService
	var err error
	switch cfg.Source {
	case "ollama":
		base, err = embedding.NewOllamaEmbeddingService(cfg.Ollama.ServerURL, cfg.Ollama.Model)
	case "openai":
		base, err = embedding.NewOpenAIEmbeddingService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding source: %q", cfg.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedding service: %w", cfg.Source, err)
	}
	logger.Get().Info("Embedding service initialized", zap.String("source", cfg.Source))

	if c == nil {
		return base, nil
	}
	return embedding.NewCachedEmbeddingService(base, c, base.Provider(), cfg.CacheTTL)
}

// Close releases the Redis connection.
func (i *Infrastructure) Close() {
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.Get().Warn("Failed to close redis", zap.Error(err))
		}
	}
}
