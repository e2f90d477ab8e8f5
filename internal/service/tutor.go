package service

import (
	"context"
	"fmt"
	"strings"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/llmjson"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/retrieval"
	"neurabuddy/internal/util"

	"go.uber.org/zap"
)

const (
	tutorTopK            = 3
	tutorContextPerChunk = 500
)

const tutorSystemPrompt = `You are NeuraBuddy, a Socratic tutor for neuroanatomy.

Your teaching approach:
1. Ask guiding questions that help students discover answers themselves
2. Reveal information progressively (don't give everything at once)
3. Connect: anatomy -> pathway -> clinical outcome
4. Encourage reasoning about structure -> function -> deficit

If the student has answered previous questions, use their responses to guide your next question.
If they're struggling, provide a hint but still ask a question.
If they've demonstrated understanding, move to the next concept or increase complexity.

Context about the topic:
%s

Previous student responses: %s

Current teaching stage: %s

Generate either:
- A guiding question (if student hasn't fully understood yet)
- An explanation with a follow-up question (if student is ready for the next step)
- A summary and next topic (if current topic is complete)

Format your response as JSON:
{
    "question": "guiding question or null",
    "explanation": "explanation if ready, or null",
    "hint": "hint if student struggling, or null",
    "is_complete": false,
    "next_step": "what to explore next",
    "concepts_covered": ["list", "of", "concepts"]
}`

// TeachParams is one tutor request. PreviousResponses holds the learner's
// earlier answers in order.
type TeachParams struct {
	Topic             string
	UserID            string
	Difficulty        domain.Difficulty
	PreviousResponses []string
}

// TutorService runs a stateless Socratic dialogue; the caller carries the
// learner's previous responses between turns.
type TutorService interface {
	Teach(ctx context.Context, p TeachParams) (*domain.TeachingTurn, error)
}

type tutorService struct {
	index retrieval.Searcher
	llm   domain.TextGenerator
	cfg   *config.Config
}

func NewTutorService(index retrieval.Searcher, llm domain.TextGenerator, cfg *config.Config) TutorService {
	return &tutorService{index: index, llm: llm, cfg: cfg}
}

type teachingPayload struct {
	Question        string             `json:"question"`
	Explanation     string             `json:"explanation"`
	Hint            string             `json:"hint"`
	IsComplete      bool               `json:"is_complete"`
	NextStep        string             `json:"next_step"`
	ConceptsCovered llmjson.StringList `json:"concepts_covered"`
}

func (s *tutorService) Teach(ctx context.Context, p TeachParams) (*domain.TeachingTurn, error) {
	topic := strings.TrimSpace(p.Topic)
	if topic == "" {
		return nil, domain.NewInvalidInputError("topic is required")
	}
	stage := domain.TeachingStageFor(len(p.PreviousResponses))

	filter := domain.NewFilter(p.Difficulty, "", false)
	res, err := retrieval.Cascade(ctx, s.index, tutorTopK, []retrieval.Tier{
		{Name: "filtered", Query: topic, Filter: filter, MinScore: s.cfg.Index.MinScore},
		{Name: "filtered_relaxed", Query: topic, Filter: filter, MinScore: s.cfg.Index.RelaxedMinScore},
	})
	if err != nil {
		logger.Get().Error("Tutor retrieval failed", zap.String("topic", topic), zap.Error(err))
		return nil, domain.NewUpstreamError("failed to search knowledge base", err)
	}

	var material string
	switch {
	case !res.Empty():
		material = formatTeachingContext(res.Chunks)
	case s.cfg.Tutor.GeneralKnowledgeFallback:
		material = generalKnowledgeContext
	default:
		logger.Get().Info("No material for tutor topic", zap.String("topic", topic), zap.String("user_id", p.UserID))
		return &domain.TeachingTurn{
			Explanation:     "I don't have enough information about this topic in my knowledge base.",
			IsComplete:      true,
			NextStep:        "Try asking about a different neuroanatomy topic.",
			ConceptsCovered: []string{},
			Stage:           stage,
		}, nil
	}

	previous := "None"
	if len(p.PreviousResponses) > 0 {
		lines := make([]string, len(p.PreviousResponses))
		for i, r := range p.PreviousResponses {
			lines[i] = "- " + r
		}
		previous = strings.Join(lines, "\n")
	}
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyUndergrad
	}

	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(tutorSystemPrompt, material, previous, stage),
		User:        fmt.Sprintf("Topic: %s\nDifficulty: %s", topic, difficulty),
		Temperature: domain.TemperatureTutor,
	})
	if err != nil {
		logger.Get().Error("Tutor generation failed", zap.String("topic", topic), zap.Error(err))
		return templatedTeachingTurn(topic, stage), nil
	}
	data, err := llmjson.Object[teachingPayload](raw)
	if err != nil || (data.Question == "" && data.Explanation == "" && !data.IsComplete) {
		logger.Get().Warn("Malformed tutor output, using template", zap.String("topic", topic), zap.Error(err))
		return templatedTeachingTurn(topic, stage), nil
	}

	concepts := []string(data.ConceptsCovered)
	if concepts == nil {
		concepts = []string{}
	}
	return &domain.TeachingTurn{
		Question:        strings.TrimSpace(data.Question),
		Explanation:     strings.TrimSpace(data.Explanation),
		Hint:            strings.TrimSpace(data.Hint),
		IsComplete:      data.IsComplete,
		NextStep:        orDefault(data.NextStep, "Continue exploring"),
		ConceptsCovered: concepts,
		Stage:           stage,
	}, nil
}

func formatTeachingContext(chunks []domain.ScoredChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "Structure: %s\n", orDefault(c.Metadata.StructureName, "N/A"))
		fmt.Fprintf(&b, "Content: %s...\n", util.Truncate(c.Content, tutorContextPerChunk))
		b.WriteString("---\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func templatedTeachingTurn(topic string, stage domain.TeachingStage) *domain.TeachingTurn {
	return &domain.TeachingTurn{
		Question:        fmt.Sprintf("What do you know about %s?", topic),
		NextStep:        "Explore the anatomical structures involved",
		ConceptsCovered: []string{topic},
		Stage:           stage,
	}
}
