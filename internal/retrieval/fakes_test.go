package retrieval

import (
	"context"
	"strings"
	"sync"

	"neurabuddy/internal/domain"
)

type searchCall struct {
	Query    string
	Filter   domain.Filter
	MinScore float64
}

// fakeSearcher returns chunks whose Score is at least minScore and whose
// metadata matches the filter. A chunk only matches queries sharing a word
// with its content, so tests can script tier behaviour.
type fakeSearcher struct {
	mu     sync.Mutex
	chunks []domain.ScoredChunk
	err    error
	total  int
	calls  []searchCall
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int, filter domain.Filter, minScore float64) ([]domain.ScoredChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{Query: query, Filter: filter, MinScore: minScore})
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ScoredChunk
	for _, c := range f.chunks {
		if c.Score < minScore || !filter.Matches(c.Metadata.Fields()) || !sharesWord(query, c.Content) {
			continue
		}
		out = append(out, c)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (f *fakeSearcher) Stats(context.Context) (domain.IndexStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := f.total
	if total == 0 {
		total = len(f.chunks)
	}
	return domain.IndexStats{TotalChunks: total, CollectionName: "test"}, nil
}

func sharesWord(query, content string) bool {
	lc := strings.ToLower(content)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 3 && strings.Contains(lc, w) {
			return true
		}
	}
	return false
}

// fakeGenerator answers classification prompts with intent and everything
// else with answer.
type fakeGenerator struct {
	mu       sync.Mutex
	intent   string
	answer   string
	classErr error
	genErr   error
	prompts  []domain.Prompt
}

func (g *fakeGenerator) Generate(_ context.Context, p domain.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	if p.System == intentSystemPrompt {
		if g.classErr != nil {
			return "", g.classErr
		}
		return g.intent, nil
	}
	if g.genErr != nil {
		return "", g.genErr
	}
	return g.answer, nil
}

func (g *fakeGenerator) last() domain.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[len(g.prompts)-1]
}

func scored(id, content string, system domain.System, difficulty domain.Difficulty, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		ID:      id,
		Content: content,
		Score:   score,
		Metadata: domain.ChunkMetadata{
			StructureName:   "Hippocampus",
			System:          system,
			DifficultyLevel: difficulty,
			Source:          "neuro.pdf",
			ChunkID:         id,
		},
	}
}
