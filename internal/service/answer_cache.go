package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"neurabuddy/internal/cache"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/retrieval"
	"neurabuddy/internal/util"

	"go.uber.org/zap"
)

// ErrAnswerNotCached is returned by AnswerCacheService.Get on a miss.
var ErrAnswerNotCached = errors.New("answer not found in cache")

// AnswerCacheService stores pipeline answers keyed by the normalised query,
// its filters and the index generation at answer time, so any ingestion or
// deletion invalidates earlier answers.
type AnswerCacheService interface {
	Put(ctx context.Context, q retrieval.Query, generation int64, answer *retrieval.Answer) error
	Get(ctx context.Context, q retrieval.Query, generation int64) (*retrieval.Answer, error)
}

type answerCacheService struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewAnswerCacheService returns a no-op service when c is nil or ttl is zero.
func NewAnswerCacheService(c domain.Cache, ttl time.Duration) AnswerCacheService {
	if c == nil || ttl <= 0 {
		logger.Get().Info("Answer cache disabled")
		return noopAnswerCache{}
	}
	return &answerCacheService{cache: c, ttl: ttl}
}

func answerCacheKey(q retrieval.Query, generation int64) string {
	return cache.GenerateCacheKey("query", "answer", cache.HashText(util.NormalizeAnswer(q.Text)),
		string(q.Difficulty), string(q.System), strconv.FormatBool(q.ClinicalOnly), strconv.FormatInt(generation, 10))
}

func (s *answerCacheService) Put(ctx context.Context, q retrieval.Query, generation int64, answer *retrieval.Answer) error {
	if answer == nil {
		return domain.NewInvalidInputError("cannot cache nil answer")
	}

	key := answerCacheKey(q, generation)
	data, err := json.Marshal(answer)
	if err != nil {
		return domain.NewInternalError("failed to marshal answer for caching", err)
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Error("Failed to cache answer", zap.Error(err), zap.String("key", key))
		return domain.NewInternalError(fmt.Sprintf("failed to cache answer for key %s", key), err)
	}
	logger.Get().Debug("Cached answer", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return nil
}

func (s *answerCacheService) Get(ctx context.Context, q retrieval.Query, generation int64) (*retrieval.Answer, error) {
	key := answerCacheKey(q, generation)
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, ErrAnswerNotCached
		}
		logger.Get().Error("Failed to read cached answer", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError(fmt.Sprintf("failed to read cached answer for key %s", key), err)
	}
	if data == "" {
		return nil, ErrAnswerNotCached
	}

	var answer retrieval.Answer
	if err := json.Unmarshal([]byte(data), &answer); err != nil {
		return nil, domain.NewInternalError(fmt.Sprintf("failed to unmarshal cached answer for key %s", key), err)
	}
	return &answer, nil
}

type noopAnswerCache struct{}

func (noopAnswerCache) Put(context.Context, retrieval.Query, int64, *retrieval.Answer) error {
	return nil
}

func (noopAnswerCache) Get(context.Context, retrieval.Query, int64) (*retrieval.Answer, error) {
	return nil, ErrAnswerNotCached
}
