package service

import (
	"context"
	"errors"
	"strings"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/retrieval"

	"go.uber.org/zap"
)

// Answerer produces a grounded answer for one query.
type Answerer interface {
	Answer(ctx context.Context, q retrieval.Query) (*retrieval.Answer, error)
}

// QueryService answers learner questions through the retrieval pipeline,
// reusing earlier answers while the index is unchanged.
type QueryService interface {
	Answer(ctx context.Context, q retrieval.Query) (*retrieval.Answer, error)
}

type queryService struct {
	pipeline Answerer
	index    IndexStatter
	answers  AnswerCacheService
}

// NewQueryService wires the pipeline with an answer cache; answers may be
// nil.
func NewQueryService(pipeline Answerer, index IndexStatter, answers AnswerCacheService) QueryService {
	if answers == nil {
		answers = noopAnswerCache{}
	}
	return &queryService{pipeline: pipeline, index: index, answers: answers}
}

func (s *queryService) Answer(ctx context.Context, q retrieval.Query) (*retrieval.Answer, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, domain.NewInvalidInputError("query text is required")
	}

	stats, statsErr := s.index.Stats(ctx)
	if statsErr != nil {
		logger.Get().Warn("Index stats unavailable, bypassing answer cache", zap.Error(statsErr))
	}

	if statsErr == nil {
		cached, err := s.answers.Get(ctx, q, stats.Generation)
		if err == nil {
			logger.Get().Debug("Serving cached answer", zap.String("user_id", q.UserID))
			return cached, nil
		}
		if !errors.Is(err, ErrAnswerNotCached) {
			logger.Get().Warn("Answer cache read failed", zap.Error(err))
		}
	}

	answer, err := s.pipeline.Answer(ctx, q)
	if err != nil {
		return nil, err
	}

	if statsErr == nil {
		if err := s.answers.Put(ctx, q, stats.Generation, answer); err != nil {
			logger.Get().Warn("Answer cache write failed", zap.Error(err))
		}
	}
	return answer, nil
}
