package service

import (
	"context"
	"fmt"
	"slices"
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
	defaultFlashCards = 10
	maxFlashCards     = 50
	caseTopK          = 8
	notesTopK         = 10
)

const flashCardSystemPrompt = `You are a neuroanatomy educator. Generate flash cards from the given content.
For each card, provide:
1. A clear FRONT (question or term)
2. A clear BACK (answer or definition)
Keep them concise and educational. Format exactly as JSON array:
[{"front": "...", "back": "..."}, ...]
Generate exactly %d flash cards. Output ONLY valid JSON, no markdown.`

const generalFlashCardSystemPrompt = `You are a neuroanatomy educator. Generate exactly %d flash cards about neuroanatomy.
Each card MUST have "front" (question or term) and "back" (answer or definition).
Output ONLY a valid JSON array, no other text: [{"front": "...", "back": "..."}, ...]
Topic: %s`

const gradingSystemPrompt = `You are evaluating a student's neuroanatomy answer. Be VERY LENIENT and focus on CONCEPTUAL UNDERSTANDING.

Question: %s
Expected Answer: %s
Student Answer: %s

CRITICAL EVALUATION RULES:
1. COMPOSITION/COMPONENT questions ("composed of", "components of", "includes"): if the student names SOME correct components, give PARTIAL CREDIT (0.5).
2. COMPLETE LIST / ENUMERATION: for "six lobes", "list all", etc. the student needs MOST items for full credit. Missing half = 0.5.
3. Focus on meaning, NOT exact wording. Synonyms and paraphrasing = correct.
4. NUMERICAL/SCIENTIFIC: equivalent values in different units = full credit.
5. 0.0 only when the answer is completely wrong, irrelevant, or shows no understanding.

Scoring Guidelines:
- 1.0: Complete answer, all components/items
- 0.5: Partial, some correct components or a partial list
- 0.0: Wrong, irrelevant, or no correct concepts

Examples:
- CNS composed of? Correct: "brain and spinal cord" | Student: "brain" -> 0.5
- "Six lobes?" + student lists 3 -> 0.5
- Expected: "1,200-1,500 g" | Student: "1.3-1.4 kg" -> 1.0

Format as JSON:
{
    "score": 0.0 or 0.5 or 1.0,
    "feedback": "brief encouraging feedback",
    "is_correct": true/false,
    "is_partial": true/false
}`

const analysisSystemPrompt = `You are a neuroanatomy learning coach. Analyze this student's flash card session and provide PERSONALIZED feedback.

%s

CRITICAL: Base your analysis on the ACTUAL questions and answers above. Do NOT give generic advice.

1. Performance summary: 2-3 sentences that reference the topic and their actual score.
2. Strengths: 2-3 SPECIFIC concepts they got right, named after the actual questions.
3. Areas to improve: 2-3 SPECIFIC concepts they got wrong or partially wrong, and what they missed.
4. Recommended topics: 3-4 neuroanatomy topics to study next, prioritising their weak areas.
5. next_difficulty: "undergrad", "med", or "advanced" based on performance.

Format as JSON:
{
    "performance_summary": "...",
    "strengths": ["strength 1", "strength 2"],
    "areas_to_improve": ["area 1", "area 2"],
    "recommended_topics": ["topic 1", "topic 2", "topic 3"],
    "next_difficulty": "undergrad" or "med" or "advanced"
}`

const caseSystemPrompt = `You are a medical educator. Create a clinical case vignette for neuroanatomy learning.
Use markdown formatting. Include:
1. **Presentation**: Patient demographics and chief complaint
2. **History**: Relevant history
3. **Examination**: Key physical/neuro exam findings
4. **Question**: What is the most likely diagnosis/localization?
5. **Answer**: Diagnosis with anatomical basis
6. **Learning Points**: 2-3 key takeaways
%s`

const notesSystemPrompt = `You are a neuroanatomy educator. Create well formatted study notes.

Use rich markdown throughout:
- Headers: # for the title, ## for major sections, ### for subsections
- **Bold** for key terms and anatomical names
- *Italics* for definitions and Latin terms
- Bullet points and numbered lists
- Tables for comparisons (cranial nerves, blood supply, pathways)
- Blockquotes (>) for clinical pearls
- Horizontal rules (---) between major sections

Structure:
# Study Notes: [Topic]
## Overview
## Key Concepts
## Detailed Content
## Clinical Correlations (if applicable)
## Summary (if requested)
## Mnemonics & Tips
%s`

var fallbackFlashCards = []domain.FlashCard{
	{Front: "What structure is responsible for memory formation?", Back: "The hippocampus, located in the medial temporal lobe."},
	{Front: "How many cranial nerves are there?", Back: "12 pairs (24 total cranial nerves)."},
	{Front: "What is the blood supply to the brain?", Back: "Internal carotid and vertebral arteries form the Circle of Willis."},
}

// StudyParams selects material for the study generators.
type StudyParams struct {
	Topic      string
	Difficulty domain.Difficulty
	System     domain.System
	Count      int
	// IncludeSummary applies to study notes only.
	IncludeSummary bool
}

// FlashCardSet is a generated deck.
type FlashCardSet struct {
	FlashCards []domain.FlashCard `json:"flash_cards"`
	Topic      string             `json:"topic"`
}

// SessionResults is a finished flash-card session submitted for analysis.
type SessionResults struct {
	Topic      string
	TotalScore float64
	MaxScore   float64
	Results    []domain.FlashCardResult
}

// StudyService generates self-study material and grades recall.
type StudyService interface {
	FlashCards(ctx context.Context, p StudyParams) (*FlashCardSet, error)
	EvaluateFlashCard(ctx context.Context, question, correctAnswer, userAnswer string) (*domain.FlashCardEvaluation, error)
	AnalyzeSession(ctx context.Context, r SessionResults) (*domain.SessionAnalysis, error)
	ClinicalCase(ctx context.Context, p StudyParams) (*domain.ClinicalCase, error)
	StudyNotes(ctx context.Context, p StudyParams) (*domain.StudyNotes, error)
}

type studyService struct {
	index retrieval.Searcher
	llm   domain.TextGenerator
	cfg   *config.Config
}

func NewStudyService(index retrieval.Searcher, llm domain.TextGenerator, cfg *config.Config) StudyService {
	return &studyService{index: index, llm: llm, cfg: cfg}
}

// studyTiers relaxes the filter, then drops it, then lowers the floor.
func (s *studyService) studyTiers(query string, filter domain.Filter) []retrieval.Tier {
	relaxed := s.cfg.Index.RelaxedMinScore
	return []retrieval.Tier{
		{Name: "filtered_relaxed", Query: query, Filter: filter, MinScore: relaxed},
		{Name: "unfiltered_relaxed", Query: query, MinScore: relaxed},
		{Name: "fallback", Query: query, MinScore: s.cfg.Index.FallbackMinScore},
	}
}

type cardPayload struct {
	Front    string `json:"front"`
	Back     string `json:"back"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// parseFlashCards accepts an array of cards or a single card object.
// question/answer are read as aliases of front/back.
func parseFlashCards(raw string, limit int) []domain.FlashCard {
	payloads, err := llmjson.Array[cardPayload](raw)
	if err != nil {
		one, oerr := llmjson.Object[cardPayload](raw)
		if oerr != nil {
			return nil
		}
		payloads = []cardPayload{one}
	}
	cards := make([]domain.FlashCard, 0, len(payloads))
	for _, p := range payloads {
		front := orDefault(p.Front, orDefault(p.Question, "?"))
		back := orDefault(p.Back, strings.TrimSpace(p.Answer))
		if front == "?" && back == "" {
			continue
		}
		cards = append(cards, domain.FlashCard{Front: front, Back: back})
	}
	if len(cards) > limit {
		cards = cards[:limit]
	}
	return cards
}

// FlashCards never fails: knowledge-base cards, then general-knowledge
// cards, then a fixed deck.
func (s *studyService) FlashCards(ctx context.Context, p StudyParams) (*FlashCardSet, error) {
	count := p.Count
	if count <= 0 {
		count = defaultFlashCards
	}
	count = clampInt(count, 1, maxFlashCards)
	topic := orDefault(p.Topic, defaultTopic)
	query := orDefault(p.Topic, "neuroanatomy key concepts")

	res := retrieval.Tolerant(ctx, s.index, max(10, count*2),
		s.studyTiers(query, domain.NewFilter(p.Difficulty, p.System, false)))

	if !res.Empty() {
		raw, err := s.llm.Generate(ctx, domain.Prompt{
			System:      fmt.Sprintf(flashCardSystemPrompt, count),
			User:        fmt.Sprintf("Content:\n%s\n\nTopic focus: %s", joinContents(res.Chunks, 0), orDefault(p.Topic, "general neuroanatomy")),
			Temperature: domain.TemperatureStudy,
		})
		if err != nil {
			logger.Get().Warn("Flash card generation failed", zap.Error(err))
		} else if cards := parseFlashCards(raw, count); len(cards) > 0 {
			return &FlashCardSet{FlashCards: cards, Topic: topic}, nil
		}
	}

	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(generalFlashCardSystemPrompt, count, orDefault(p.Topic, "general neuroanatomy")),
		User:        fmt.Sprintf("Generate %d flash cards about %s. Output only JSON.", count, orDefault(p.Topic, "general neuroanatomy")),
		Temperature: domain.TemperatureStudy,
	})
	if err == nil {
		if cards := parseFlashCards(raw, count); len(cards) > 0 {
			return &FlashCardSet{FlashCards: cards, Topic: topic}, nil
		}
	}
	logger.Get().Warn("Using fixed flash card deck", zap.String("topic", topic), zap.Error(err))

	n := min(count, len(fallbackFlashCards))
	return &FlashCardSet{FlashCards: append([]domain.FlashCard(nil), fallbackFlashCards[:n]...), Topic: topic}, nil
}

type gradingPayload struct {
	Score     *float64 `json:"score"`
	Feedback  string   `json:"feedback"`
	IsCorrect *bool    `json:"is_correct"`
	IsPartial *bool    `json:"is_partial"`
}

func (s *studyService) EvaluateFlashCard(ctx context.Context, question, correctAnswer, userAnswer string) (*domain.FlashCardEvaluation, error) {
	if strings.TrimSpace(correctAnswer) == "" {
		return nil, domain.NewInvalidInputError("correct_answer is required")
	}

	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(gradingSystemPrompt, question, correctAnswer, userAnswer),
		User:        "Evaluate this answer with leniency and focus on conceptual understanding.",
		Temperature: domain.TemperatureRetrieval,
	})
	if err == nil {
		data, perr := llmjson.Object[gradingPayload](raw)
		if perr == nil && data.Score != nil {
			score := snapScore(util.Clamp01(*data.Score))
			ev := domain.FlashCardEvaluation{
				Score:     score,
				Feedback:  data.Feedback,
				IsCorrect: score == 1,
				IsPartial: score == 0.5,
			}
			if data.IsCorrect != nil {
				ev.IsCorrect = *data.IsCorrect
			}
			if data.IsPartial != nil {
				ev.IsPartial = *data.IsPartial
			}
			return &ev, nil
		}
		err = perr
	}
	logger.Get().Warn("Model grading unavailable, using heuristic", zap.Error(err))
	ev := gradeHeuristically(question, correctAnswer, userAnswer)
	return &ev, nil
}

type analysisPayload struct {
	PerformanceSummary string             `json:"performance_summary"`
	Strengths          llmjson.StringList `json:"strengths"`
	AreasToImprove     llmjson.StringList `json:"areas_to_improve"`
	RecommendedTopics  llmjson.StringList `json:"recommended_topics"`
	NextDifficulty     string             `json:"next_difficulty"`
}

func (s *studyService) AnalyzeSession(ctx context.Context, r SessionResults) (*domain.SessionAnalysis, error) {
	if r.MaxScore < 0 || r.TotalScore < 0 {
		return nil, domain.NewInvalidInputError("scores must not be negative")
	}

	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(analysisSystemPrompt, describeResults(r)),
		User:        "Analyze this session and recommend next topics.",
		Temperature: domain.TemperatureRetrieval,
	})
	if err == nil {
		data, perr := llmjson.Object[analysisPayload](raw)
		if perr == nil && data.PerformanceSummary != "" {
			next, derr := domain.ParseDifficulty(data.NextDifficulty)
			if derr != nil {
				next = domain.DifficultyUndergrad
			}
			return &domain.SessionAnalysis{
				PerformanceSummary: data.PerformanceSummary,
				Strengths:          nonNil(data.Strengths),
				AreasToImprove:     nonNil(data.AreasToImprove),
				RecommendedTopics:  nonNil(data.RecommendedTopics),
				NextDifficulty:     next,
			}, nil
		}
		err = perr
	}
	logger.Get().Warn("Session analysis fell back to card results", zap.String("topic", r.Topic), zap.Error(err))
	return fallbackAnalysis(r), nil
}

func nonNil(l llmjson.StringList) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}

func percentage(r SessionResults) float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return r.TotalScore / r.MaxScore * 100
}

func describeResults(r SessionResults) string {
	var correct, partial int
	for _, c := range r.Results {
		switch c.Score {
		case 1:
			correct++
		case 0.5:
			partial++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nScore: %g/%g (%.1f%%)\n", r.Topic, r.TotalScore, r.MaxScore, percentage(r))
	fmt.Fprintf(&b, "Correct (1.0): %d, Partial (0.5): %d, Incorrect (0.0): %d\n\n", correct, partial, len(r.Results)-correct-partial)
	b.WriteString("--- DETAILED CARD RESULTS ---\n\n")
	for i, c := range r.Results {
		fmt.Fprintf(&b, "Card %d [Score: %g]\n", i+1, c.Score)
		fmt.Fprintf(&b, "Question: %s\n", orDefault(c.Question, "?"))
		fmt.Fprintf(&b, "Student's answer: %s\n", c.UserAnswer)
		fmt.Fprintf(&b, "Correct answer: %s\n", c.CorrectAnswer)
		if c.Feedback != "" {
			fmt.Fprintf(&b, "Feedback given: %s\n", c.Feedback)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func fallbackAnalysis(r SessionResults) *domain.SessionAnalysis {
	var strengths, areas []string
	var partials []domain.FlashCardResult
	for _, c := range r.Results {
		q := orDefault(c.Question, "?")
		switch {
		case c.Score == 1:
			if len(strengths) < 3 {
				line := "Got it right: " + util.Truncate(q, 100)
				if len([]rune(q)) > 100 {
					line += "..."
				}
				strengths = append(strengths, line)
			}
		case c.Score == 0.5:
			partials = append(partials, c)
		case c.Score < 0.5:
			if len(areas) < 3 {
				areas = append(areas, fmt.Sprintf("Review: %s. Key point: %s", util.Truncate(q, 80), util.Truncate(c.CorrectAnswer, 80)))
			}
		}
	}
	for i, c := range partials {
		if i == 2 {
			break
		}
		areas = append(areas, fmt.Sprintf("Partial: %s. Review the complete answer", util.Truncate(orDefault(c.Question, "?"), 80)))
	}
	if len(strengths) == 0 {
		strengths = []string{"You completed the session", "Keep building on the concepts you attempted"}
	}
	if len(areas) == 0 {
		areas = []string{"Review any partial answers to strengthen recall", "Try related topics to deepen understanding"}
	}

	pct := percentage(r)
	var summary string
	var next domain.Difficulty
	switch {
	case pct >= 80:
		summary = fmt.Sprintf("Strong performance on %s! You scored %g/%g. Focus on the few weak spots below.", r.Topic, r.TotalScore, r.MaxScore)
		next = domain.DifficultyAdvanced
	case pct >= 60:
		summary = fmt.Sprintf("Good effort on %s (%g/%g). You have a solid base; here's what to sharpen.", r.Topic, r.TotalScore, r.MaxScore)
		next = domain.DifficultyMed
	default:
		summary = fmt.Sprintf("On %s you scored %g/%g. Review the concepts below and try again.", r.Topic, r.TotalScore, r.MaxScore)
		next = domain.DifficultyUndergrad
	}

	topics := []string{"cranial nerves", "brain anatomy", "spinal cord"}
	if t := strings.TrimSpace(r.Topic); t != "" && !slices.Contains(topics, strings.ToLower(t)) {
		topics = append([]string{t}, topics...)
	}
	return &domain.SessionAnalysis{
		PerformanceSummary: summary,
		Strengths:          strengths,
		AreasToImprove:     areas,
		RecommendedTopics:  topics,
		NextDifficulty:     next,
	}
}

// ClinicalCase writes a one-shot vignette, grounded when material exists.
func (s *studyService) ClinicalCase(ctx context.Context, p StudyParams) (*domain.ClinicalCase, error) {
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyMed
	}
	query := orDefault(p.Topic, "clinical neuroanatomy presentation")
	res := retrieval.Tolerant(ctx, s.index, caseTopK, s.studyTiers(query, domain.NewFilter(difficulty, p.System, false)))

	prompt := domain.Prompt{Temperature: domain.TemperatureStudy}
	if res.Empty() {
		prompt.System = fmt.Sprintf(caseSystemPrompt, "Topic: "+orDefault(p.Topic, defaultTopic))
		prompt.User = "Create a clinical case about " + orDefault(p.Topic, defaultTopic)
	} else {
		prompt.System = fmt.Sprintf(caseSystemPrompt, "Base this on the provided anatomical content. Make it realistic and educational.")
		prompt.User = fmt.Sprintf("Content:\n%s\n\nTopic: %s", joinContents(res.Chunks, 0), orDefault(p.Topic, defaultTopic))
	}

	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		logger.Get().Error("Clinical case generation failed", zap.String("topic", query), zap.Error(err))
		return nil, domain.NewUpstreamError("failed to generate clinical case", err)
	}
	return &domain.ClinicalCase{
		Case:       llmjson.Text(raw, ""),
		Topic:      orDefault(p.Topic, "clinical neuroanatomy"),
		Difficulty: difficulty,
	}, nil
}

// StudyNotes writes markdown notes for a topic, grounded when material
// exists.
func (s *studyService) StudyNotes(ctx context.Context, p StudyParams) (*domain.StudyNotes, error) {
	topic := strings.TrimSpace(p.Topic)
	if topic == "" {
		return nil, domain.NewInvalidInputError("topic is required")
	}
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyUndergrad
	}
	res := retrieval.Tolerant(ctx, s.index, notesTopK, s.studyTiers(topic, domain.NewFilter(difficulty, p.System, false)))

	summary := "Do not include a summary."
	if p.IncludeSummary {
		summary = "Add a Summary section at the end."
	}
	prompt := domain.Prompt{
		System:      fmt.Sprintf(notesSystemPrompt, summary),
		User:        "Create study notes about " + topic,
		Temperature: domain.TemperatureStudy,
	}
	if !res.Empty() {
		prompt.User = fmt.Sprintf("Topic: %s\n\nContent:\n%s", topic, joinContents(res.Chunks, 0))
	}

	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		logger.Get().Error("Study notes generation failed", zap.String("topic", topic), zap.Error(err))
		return nil, domain.NewUpstreamError("failed to generate study notes", err)
	}
	return &domain.StudyNotes{
		Notes:      llmjson.Text(raw, ""),
		Topic:      topic,
		Difficulty: difficulty,
	}, nil
}
