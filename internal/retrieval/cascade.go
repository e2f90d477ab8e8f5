// Package retrieval holds the relax-and-retry search cascade shared by every
// workflow and the grounded question-answering pipeline built on it.
package retrieval

import (
	"context"
	"maps"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"

	"go.uber.org/zap"
)

// Searcher is the slice of the vector index the workflows need.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filter domain.Filter, minScore float64) ([]domain.ScoredChunk, error)
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// Tier is one search attempt of a cascade.
type Tier struct {
	Name     string
	Query    string
	Filter   domain.Filter
	MinScore float64
}

func (t Tier) same(o Tier) bool {
	return t.Query == o.Query && t.MinScore == o.MinScore && maps.Equal(t.Filter, o.Filter)
}

// Result is the outcome of a cascade. Tier is empty when nothing matched.
type Result struct {
	Chunks []domain.ScoredChunk
	Tier   string
}

// Empty reports whether no tier produced chunks.
func (r Result) Empty() bool {
	return len(r.Chunks) == 0
}

// Cascade runs tiers in order and returns the first non-empty result.
// Tiers identical to an earlier one are skipped. A search error aborts the
// cascade and is returned to the caller, which decides whether to degrade.
func Cascade(ctx context.Context, s Searcher, topK int, tiers []Tier) (Result, error) {
	for i, t := range tiers {
		dup := false
		for _, prev := range tiers[:i] {
			if t.same(prev) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		chunks, err := s.Search(ctx, t.Query, topK, t.Filter, t.MinScore)
		if err != nil {
			return Result{}, err
		}
		if len(chunks) > 0 {
			logger.Get().Debug("Retrieval tier matched",
				zap.String("tier", t.Name),
				zap.Int("chunks", len(chunks)),
			)
			return Result{Chunks: chunks, Tier: t.Name}, nil
		}
	}
	return Result{}, nil
}

// Tolerant runs Cascade and converts a search failure into an empty result,
// for workflows that must always produce output.
func Tolerant(ctx context.Context, s Searcher, topK int, tiers []Tier) Result {
	res, err := Cascade(ctx, s, topK, tiers)
	if err != nil {
		logger.Get().Warn("Retrieval failed, continuing without context", zap.Error(err))
		return Result{}
	}
	return res
}

// StandardTiers is the strict-then-relaxed sequence used by every workflow:
// filtered at minScore, filtered at relaxed, then unfiltered at relaxed.
func StandardTiers(query string, filter domain.Filter, minScore, relaxed float64) []Tier {
	return []Tier{
		{Name: "filtered", Query: query, Filter: filter, MinScore: minScore},
		{Name: "filtered_relaxed", Query: query, Filter: filter, MinScore: relaxed},
		{Name: "unfiltered_relaxed", Query: query, MinScore: relaxed},
	}
}

// MeanScore averages chunk scores, 0 for none.
func MeanScore(chunks []domain.ScoredChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	var sum float64
	for _, c := range chunks {
		sum += c.Score
	}
	return sum / float64(len(chunks))
}
