package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/util"

	"go.uber.org/zap"
)

const sourcePreviewLength = 150

// Query is a learner question with optional retrieval constraints.
type Query struct {
	Text         string
	UserID       string
	Difficulty   domain.Difficulty
	System       domain.System
	ClinicalOnly bool
}

// Source cites one chunk used to ground an answer.
type Source struct {
	ChunkID       string  `json:"chunk_id"`
	StructureName string  `json:"structure_name"`
	System        string  `json:"system"`
	Source        string  `json:"source"`
	Score         float64 `json:"score"`
	Preview       string  `json:"preview"`
}

// Answer is the pipeline output. Grounded is false for general-knowledge
// answers, which carry no sources and zero confidence.
type Answer struct {
	Answer     string        `json:"answer"`
	Sources    []Source      `json:"sources"`
	Confidence float64       `json:"confidence"`
	Intent     domain.Intent `json:"intent"`
	Grounded   bool          `json:"grounded"`
}

// Pipeline answers queries from retrieved context only, degrading to
// general knowledge with an explicit disclosure when retrieval finds nothing.
type Pipeline struct {
	index Searcher
	llm   domain.TextGenerator
	cfg   config.IndexConfig
}

func NewPipeline(index Searcher, llm domain.TextGenerator, cfg config.IndexConfig) *Pipeline {
	return &Pipeline{index: index, llm: llm, cfg: cfg}
}

// ClassifyIntent never fails; errors and unknown labels yield
// factual_explanation.
func (p *Pipeline) ClassifyIntent(ctx context.Context, text string) domain.Intent {
	out, err := p.llm.Generate(ctx, domain.Prompt{
		System:      intentSystemPrompt,
		User:        "Query: " + text,
		Temperature: domain.TemperatureClassify,
	})
	if err != nil {
		logger.Get().Warn("Intent classification failed, defaulting", zap.Error(err))
		return domain.IntentFactualExplanation
	}
	return domain.ParseIntent(out)
}

// Answer runs classification, the retrieval cascade and answer synthesis.
// Index and answer-generation failures are returned as upstream errors.
func (p *Pipeline) Answer(ctx context.Context, q Query) (*Answer, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, domain.NewInvalidInputError("query text is required")
	}
	intent := p.ClassifyIntent(ctx, q.Text)
	filter := domain.NewFilter(q.Difficulty, q.System, q.ClinicalOnly)
	topK := p.cfg.TopK
	if topK <= 0 {
		topK = 5
	}

	res, err := Cascade(ctx, p.index, topK, []Tier{
		{Name: "filtered", Query: q.Text, Filter: filter, MinScore: p.cfg.MinScore},
		{Name: "filtered_relaxed", Query: q.Text, Filter: filter, MinScore: p.cfg.RelaxedMinScore},
	})
	if err != nil {
		return nil, asUpstream("search failed", err)
	}

	if res.Empty() {
		stats, err := p.index.Stats(ctx)
		if err != nil {
			return nil, asUpstream("index stats failed", err)
		}
		if stats.TotalChunks == 0 {
			return p.generalKnowledge(ctx, q.Text, intent, emptyKnowledgeBaseDisclosure)
		}

		var tiers []Tier
		if len(filter) > 0 {
			tiers = append(tiers, Tier{Name: "unfiltered_relaxed", Query: q.Text, MinScore: p.cfg.RelaxedMinScore})
		}
		for _, bq := range broadenedQueries {
			tiers = append(tiers, Tier{Name: "broadened", Query: bq, MinScore: p.cfg.FallbackMinScore})
		}
		res, err = Cascade(ctx, p.index, topK, tiers)
		if err != nil {
			return nil, asUpstream("search failed", err)
		}
		if res.Empty() {
			return p.generalKnowledge(ctx, q.Text, intent, noMatchDisclosure)
		}
	}

	text, err := p.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(groundedSystemPrompt, intent, FormatContext(res.Chunks)),
		User:        q.Text,
		Temperature: domain.TemperatureRetrieval,
	})
	if err != nil {
		return nil, domain.NewUpstreamError("answer generation failed", err)
	}

	logger.Get().Info("Answered query from knowledge base",
		zap.String("user_id", q.UserID),
		zap.String("intent", string(intent)),
		zap.String("tier", res.Tier),
		zap.Int("sources", len(res.Chunks)),
	)
	return &Answer{
		Answer:     strings.TrimSpace(text),
		Sources:    Sources(res.Chunks),
		Confidence: MeanScore(res.Chunks),
		Intent:     intent,
		Grounded:   true,
	}, nil
}

func (p *Pipeline) generalKnowledge(ctx context.Context, text string, intent domain.Intent, disclosure string) (*Answer, error) {
	out, err := p.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(generalKnowledgeSystemPrompt, intent),
		User:        text,
		Temperature: domain.TemperatureRetrieval,
	})
	if err != nil {
		return nil, domain.NewUpstreamError("answer generation failed", err)
	}
	logger.Get().Info("Answered query from general knowledge", zap.String("intent", string(intent)))
	return &Answer{
		Answer:  disclosure + "\n\n" + strings.TrimSpace(out),
		Sources: []Source{},
		Intent:  intent,
	}, nil
}

// FormatContext renders chunks as numbered, attributed context blocks.
func FormatContext(chunks []domain.ScoredChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[Source %d]\nStructure: %s\nSystem: %s\nSource: %s\nContent:\n%s\n---\n\n",
			i+1, orNA(c.Metadata.StructureName), orNA(string(c.Metadata.System)), orNA(c.Metadata.Source), c.Content)
	}
	return strings.TrimSpace(b.String())
}

// Sources converts chunks into citations.
func Sources(chunks []domain.ScoredChunk) []Source {
	out := make([]Source, 0, len(chunks))
	for _, c := range chunks {
		preview := c.Metadata.Preview
		if preview == "" {
			preview = c.Content
		}
		out = append(out, Source{
			ChunkID:       c.ID,
			StructureName: c.Metadata.StructureName,
			System:        string(c.Metadata.System),
			Source:        c.Metadata.Source,
			Score:         c.Score,
			Preview:       util.Truncate(preview, sourcePreviewLength),
		})
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func asUpstream(msg string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.NewUpstreamError(msg, err)
}
