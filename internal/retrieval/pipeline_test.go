package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIndexConfig = config.IndexConfig{TopK: 5, MinScore: 0.7, RelaxedMinScore: 0.3, FallbackMinScore: 0.2}

func TestAnswer_Grounded(t *testing.T) {
	s := &fakeSearcher{chunks: []domain.ScoredChunk{
		scored("c1", "The hippocampus consolidates declarative memory.", domain.SystemLimbic, domain.DifficultyUndergrad, 0.9),
		scored("c2", "Hippocampus damage causes anterograde amnesia.", domain.SystemLimbic, domain.DifficultyUndergrad, 0.8),
	}}
	g := &fakeGenerator{intent: "factual_explanation", answer: "  The hippocampus supports memory.  "}
	p := NewPipeline(s, g, testIndexConfig)

	ans, err := p.Answer(context.Background(), Query{Text: "What does the hippocampus do?"})
	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Equal(t, "The hippocampus supports memory.", ans.Answer)
	assert.Equal(t, domain.IntentFactualExplanation, ans.Intent)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "c1", ans.Sources[0].ChunkID)
	assert.InDelta(t, 0.85, ans.Confidence, 1e-9)

	last := g.last()
	assert.Contains(t, last.System, "[Source 1]")
	assert.Contains(t, last.System, "Structure: Hippocampus")
	assert.Contains(t, last.System, InsufficientInformation)
	assert.Equal(t, domain.TemperatureRetrieval, last.Temperature)
}

func TestAnswer_EmptyIndexUsesGeneralKnowledge(t *testing.T) {
	s := &fakeSearcher{}
	g := &fakeGenerator{intent: "quiz_request", answer: "The hippocampus is in the medial temporal lobe."}
	p := NewPipeline(s, g, testIndexConfig)

	ans, err := p.Answer(context.Background(), Query{Text: "Where is the hippocampus?"})
	require.NoError(t, err)
	assert.False(t, ans.Grounded)
	assert.Zero(t, ans.Confidence)
	assert.Empty(t, ans.Sources)
	assert.True(t, strings.HasPrefix(ans.Answer, emptyKnowledgeBaseDisclosure))
	assert.Equal(t, domain.IntentQuizRequest, ans.Intent)
}

func TestAnswer_RelaxesFiltersBeforeGivingUp(t *testing.T) {
	s := &fakeSearcher{chunks: []domain.ScoredChunk{
		scored("c1", "The hippocampus consolidates memory.", domain.SystemLimbic, domain.DifficultyUndergrad, 0.5),
	}}
	g := &fakeGenerator{intent: "factual_explanation", answer: "grounded"}
	p := NewPipeline(s, g, testIndexConfig)

	ans, err := p.Answer(context.Background(), Query{Text: "hippocampus function", Difficulty: domain.DifficultyAdvanced})
	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	require.Len(t, ans.Sources, 1)

	// filtered, filtered relaxed, then unfiltered relaxed.
	require.Len(t, s.calls, 3)
	assert.Empty(t, s.calls[2].Filter)
	assert.Equal(t, 0.3, s.calls[2].MinScore)
}

func TestAnswer_BroadenedQueries(t *testing.T) {
	s := &fakeSearcher{chunks: []domain.ScoredChunk{
		scored("c1", "An overview of neuroanatomy.", domain.SystemOther, domain.DifficultyUndergrad, 0.25),
	}}
	g := &fakeGenerator{intent: "factual_explanation", answer: InsufficientInformation}
	p := NewPipeline(s, g, testIndexConfig)

	ans, err := p.Answer(context.Background(), Query{Text: "pineal gland"})
	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Equal(t, "neuroanatomy", s.calls[len(s.calls)-1].Query)
	assert.Equal(t, 0.2, s.calls[len(s.calls)-1].MinScore)
}

func TestAnswer_NoMatchInLoadedIndex(t *testing.T) {
	s := &fakeSearcher{total: 10}
	g := &fakeGenerator{intent: "factual_explanation", answer: "general"}
	p := NewPipeline(s, g, testIndexConfig)

	ans, err := p.Answer(context.Background(), Query{Text: "pineal gland"})
	require.NoError(t, err)
	assert.False(t, ans.Grounded)
	assert.True(t, strings.HasPrefix(ans.Answer, noMatchDisclosure))
}

func TestAnswer_ClassificationFailureDefaultsToFactual(t *testing.T) {
	s := &fakeSearcher{}
	g := &fakeGenerator{classErr: errors.New("timeout"), answer: "ok"}
	p := NewPipeline(s, g, testIndexConfig)

	ans, err := p.Answer(context.Background(), Query{Text: "hippocampus"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentFactualExplanation, ans.Intent)
}

func TestAnswer_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		p := NewPipeline(&fakeSearcher{}, &fakeGenerator{}, testIndexConfig)
		_, err := p.Answer(context.Background(), Query{Text: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
	t.Run("index failure", func(t *testing.T) {
		p := NewPipeline(&fakeSearcher{err: errors.New("down")}, &fakeGenerator{}, testIndexConfig)
		_, err := p.Answer(context.Background(), Query{Text: "hippocampus"})
		assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	})
	t.Run("generation failure", func(t *testing.T) {
		s := &fakeSearcher{chunks: []domain.ScoredChunk{
			scored("c1", "hippocampus", domain.SystemLimbic, domain.DifficultyUndergrad, 0.9),
		}}
		p := NewPipeline(s, &fakeGenerator{genErr: errors.New("500")}, testIndexConfig)
		_, err := p.Answer(context.Background(), Query{Text: "hippocampus"})
		assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	})
}

func TestSources_PreviewIsBounded(t *testing.T) {
	long := strings.Repeat("a", 400)
	src := Sources([]domain.ScoredChunk{{ID: "x", Content: long}})
	require.Len(t, src, 1)
	assert.Len(t, src[0].Preview, sourcePreviewLength)
}
