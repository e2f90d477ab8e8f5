package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"neurabuddy/internal/cache"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/util"

	"go.uber.org/zap"
)

const defaultFeedbackCacheTTL = 24 * time.Hour

// cachedFeedback is one judged answer with the embedding used to match
// later answers to the same question.
type cachedFeedback struct {
	Feedback  domain.AnswerFeedback `json:"feedback"`
	Embedding []float32             `json:"embedding"`
	Answer    string                `json:"answer,omitempty"`
}

// FeedbackCacheService reuses answer judgements for semantically equivalent
// answers to the same question.
type FeedbackCacheService interface {
	Get(ctx context.Context, questionID string, embedding []float32) (*domain.AnswerFeedback, error)
	Put(ctx context.Context, questionID, answer string, embedding []float32, feedback domain.AnswerFeedback) error
}

type feedbackCacheService struct {
	cache     domain.Cache
	threshold float64
	ttl       time.Duration
}

// NewFeedbackCacheService returns a no-op service when c is nil.
func NewFeedbackCacheService(c domain.Cache, threshold float64, ttl time.Duration) FeedbackCacheService {
	if c == nil {
		return noopFeedbackCache{}
	}
	if ttl <= 0 {
		ttl = defaultFeedbackCacheTTL
	}
	return &feedbackCacheService{cache: c, threshold: threshold, ttl: ttl}
}

func (s *feedbackCacheService) key(questionID string) string {
	return cache.GenerateCacheKey("quiz", "feedback", questionID)
}

// Get returns nil without error on a miss.
func (s *feedbackCacheService) Get(ctx context.Context, questionID string, embedding []float32) (*domain.AnswerFeedback, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	entries, err := s.cache.HGetAll(ctx, s.key(questionID))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	for _, raw := range entries {
		var entry cachedFeedback
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			logger.Get().Warn("Skipping unreadable cached feedback", zap.String("question_id", questionID), zap.Error(err))
			continue
		}
		sim, err := util.CosineSimilarity(embedding, entry.Embedding)
		if err != nil {
			continue
		}
		if sim >= s.threshold {
			logger.Get().Debug("Feedback cache hit",
				zap.String("question_id", questionID),
				zap.Float64("similarity", sim),
			)
			fb := entry.Feedback
			return &fb, nil
		}
	}
	return nil, nil
}

func (s *feedbackCacheService) Put(ctx context.Context, questionID, answer string, embedding []float32, feedback domain.AnswerFeedback) error {
	if len(embedding) == 0 {
		return nil
	}
	body, err := json.Marshal(cachedFeedback{Feedback: feedback, Embedding: embedding, Answer: answer})
	if err != nil {
		return err
	}
	key := s.key(questionID)
	if err := s.cache.HSet(ctx, key, cache.HashText(util.NormalizeAnswer(answer)), string(body)); err != nil {
		return err
	}
	return s.cache.Expire(ctx, key, s.ttl)
}

type noopFeedbackCache struct{}

func (noopFeedbackCache) Get(context.Context, string, []float32) (*domain.AnswerFeedback, error) {
	return nil, nil
}

func (noopFeedbackCache) Put(context.Context, string, string, []float32, domain.AnswerFeedback) error {
	return nil
}
