package service

import (
	"context"
	"time"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"

	"go.uber.org/zap"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"

	componentOK       = "ok"
	componentDown     = "unavailable"
	componentDisabled = "disabled"
)

// IndexStatter reports vector index statistics.
type IndexStatter interface {
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// HealthStatus is the readiness report served at /health.
type HealthStatus struct {
	Status    string             `json:"status"`
	Index     *domain.IndexStats `json:"index,omitempty"`
	Redis     string             `json:"redis"`
	Timestamp time.Time          `json:"timestamp"`
}

type HealthService interface {
	Check(ctx context.Context) HealthStatus
}

type healthService struct {
	index IndexStatter
	cache domain.Cache
	now   func() time.Time
}

// NewHealthService checks the index and, when cache is non-nil, Redis.
func NewHealthService(index IndexStatter, cache domain.Cache) HealthService {
	return &healthService{index: index, cache: cache, now: time.Now}
}

func (s *healthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: StatusHealthy, Redis: componentDisabled, Timestamp: s.now()}

	if stats, err := s.index.Stats(ctx); err != nil {
		logger.Get().Error("Health check: index unavailable", zap.Error(err))
		status.Status = StatusDegraded
	} else {
		status.Index = &stats
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			logger.Get().Error("Health check: redis unavailable", zap.Error(err))
			status.Redis = componentDown
			status.Status = StatusDegraded
		} else {
			status.Redis = componentOK
		}
	}
	return status
}
