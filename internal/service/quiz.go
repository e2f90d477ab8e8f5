package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/llmjson"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/retrieval"
	"neurabuddy/internal/session"
	"neurabuddy/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	questionContextLimit = 1000
	defaultQuizTopic     = "General Neuroanatomy"
)

const questionSystemPrompt = `You are a medical education expert creating quiz questions for neuroanatomy.

Generate a %s question based on the following context.

Requirements:
- Test understanding of the anatomical structure, pathway, or clinical correlation
- Match the difficulty level: %s
- For MCQ: Provide 4 options, with only ONE correct answer
- For short answer: Provide a clear, concise expected answer
- For clinical vignette: Present a patient scenario and ask about the underlying anatomy

Context:
%s

Respond with ONE JSON object only:
{
    "question": "the question text",
    "question_type": "%s",
    "options": ["option1", "option2", "option3", "option4"],
    "correct_answer": "the correct answer",
    "structure_tested": "anatomical structure being tested",
    "learning_objective": "what the student should learn",
    "explanation": "why the answer is correct"
}
Omit "options" unless the question is MCQ.`

const feedbackSystemPrompt = `You are providing feedback on a quiz answer.

Question: %s
Correct Answer: %s
Student Answer: %s
Explanation: %s
Structure Tested: %s

Provide feedback that:
1. Confirms if the answer is correct or explains why it's wrong
2. Links back to the core anatomy
3. Explains the clinical relevance if applicable
4. Encourages further learning

Format as JSON:
{
    "is_correct": true/false,
    "feedback": "overall feedback message",
    "explanation": "detailed explanation",
    "related_anatomy": "key anatomical points to remember"
}`

// CreateQuizParams describes a requested quiz. Zero Count means the
// configured default.
type CreateQuizParams struct {
	UserID     string
	Topic      string
	Difficulty domain.Difficulty
	System     domain.System
	Count      int
}

// SubmitResult is the outcome of one answer submission.
type SubmitResult struct {
	Feedback          domain.AnswerFeedback `json:"feedback"`
	Score             float64               `json:"score"`
	TotalQuestions    int                   `json:"total_questions"`
	QuestionsAnswered int                   `json:"questions_answered"`
}

// QuizService defines the interface for quiz-related operations
type QuizService interface {
	Create(ctx context.Context, p CreateQuizParams) (*domain.Quiz, error)
	SubmitAnswer(ctx context.Context, quizID, questionID, answer, userID string) (*SubmitResult, error)
	Feedback(ctx context.Context, quizID, questionID, userID string) (*domain.AnswerFeedback, error)
	Progress(ctx context.Context, userID string) (*domain.UserProgress, error)
}

type quizService struct {
	index         retrieval.Searcher
	llm           domain.TextGenerator
	store         session.Store[*domain.Quiz]
	embedder      domain.EmbeddingService
	feedbackCache FeedbackCacheService
	cfg           *config.Config
	now           func() time.Time
}

// NewQuizService creates a quiz service. embedder and feedbackCache may be
// nil, which disables judgement reuse. Answers are only embedded when a real
// feedback cache is configured.
func NewQuizService(
	index retrieval.Searcher,
	llm domain.TextGenerator,
	store session.Store[*domain.Quiz],
	embedder domain.EmbeddingService,
	feedbackCache FeedbackCacheService,
	cfg *config.Config,
) QuizService {
	if feedbackCache == nil {
		feedbackCache = noopFeedbackCache{}
	}
	if _, noop := feedbackCache.(noopFeedbackCache); noop {
		embedder = nil
	}
	return &quizService{
		index:         index,
		llm:           llm,
		store:         store,
		embedder:      embedder,
		feedbackCache: feedbackCache,
		cfg:           cfg,
		now:           time.Now,
	}
}

type questionPayload struct {
	Question          string             `json:"question"`
	Options           llmjson.StringList `json:"options"`
	CorrectAnswer     string             `json:"correct_answer"`
	StructureTested   string             `json:"structure_tested"`
	LearningObjective string             `json:"learning_objective"`
	Explanation       string             `json:"explanation"`
}

// questionSlot is one question to generate.
type questionSlot struct {
	context   string
	topic     string
	qtype     domain.QuestionType
	chunkID   string
	structure string
}

// Create never fails once the input is valid: each retrieval tier that
// yields no questions falls through to the next, ending at a fixed bank.
func (s *quizService) Create(ctx context.Context, p CreateQuizParams) (*domain.Quiz, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return nil, domain.NewInvalidInputError("user_id is required")
	}
	count := p.Count
	if count <= 0 {
		count = s.cfg.Quiz.DefaultQuestions
	}
	count = clampInt(count, 1, s.cfg.Quiz.MaxQuestions)
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyUndergrad
	}

	query := orDefault(p.Topic, defaultTopic)
	filter := domain.NewFilter(difficulty, p.System, false)
	res := retrieval.Tolerant(ctx, s.index, count*2,
		retrieval.StandardTiers(query, filter, s.cfg.Index.MinScore, s.cfg.Index.RelaxedMinScore))

	var questions []*domain.Question
	tier := "knowledge_base"
	if !res.Empty() {
		slots := make([]questionSlot, count)
		for i := range slots {
			c := res.Chunks[i%len(res.Chunks)]
			slots[i] = questionSlot{
				context:   util.Truncate(c.Content, questionContextLimit),
				topic:     orDefault(p.Topic, orDefault(c.Metadata.StructureName, defaultTopic)),
				qtype:     domain.QuestionTypeRotation[i%len(domain.QuestionTypeRotation)],
				chunkID:   c.ID,
				structure: c.Metadata.StructureName,
			}
		}
		questions = s.generateQuestions(ctx, slots, difficulty)
	}
	if len(questions) == 0 {
		tier = "general_knowledge"
		slots := make([]questionSlot, count)
		for i := range slots {
			slots[i] = questionSlot{
				context: generalKnowledgeContext,
				topic:   query,
				qtype:   domain.QuestionTypeRotation[i%len(domain.QuestionTypeRotation)],
			}
		}
		questions = s.generateQuestions(ctx, slots, difficulty)
	}
	if len(questions) == 0 {
		tier = "fallback_bank"
		questions = bankQuestions(count, difficulty)
	}

	quiz := domain.NewQuiz(util.NewULID(), p.UserID, orDefault(p.Topic, defaultQuizTopic), difficulty, questions, s.now())
	if err := s.store.Put(ctx, quiz.ID, quiz); err != nil {
		return nil, domain.NewInternalError("failed to store quiz", err)
	}

	logger.Get().Info("Quiz created",
		zap.String("quiz_id", quiz.ID),
		zap.String("user_id", p.UserID),
		zap.String("tier", tier),
		zap.Int("questions", len(questions)),
	)
	return quiz, nil
}

// generateQuestions runs one model call per slot, bounded by the configured
// concurrency, and keeps slot order. Failed slots are dropped.
func (s *quizService) generateQuestions(ctx context.Context, slots []questionSlot, difficulty domain.Difficulty) []*domain.Question {
	results := make([]*domain.Question, len(slots))

	var g errgroup.Group
	limit := s.cfg.Quiz.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, slot := range slots {
		i, slot := i, slot
		g.Go(func() error {
			q, err := s.generateQuestion(ctx, slot, difficulty)
			if err != nil {
				logger.Get().Warn("Skipping question slot",
					zap.Int("slot", i),
					zap.String("type", string(slot.qtype)),
					zap.Error(err),
				)
				return nil
			}
			results[i] = q
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*domain.Question, 0, len(results))
	for _, q := range results {
		if q != nil {
			out = append(out, q)
		}
	}
	return out
}

func (s *quizService) generateQuestion(ctx context.Context, slot questionSlot, difficulty domain.Difficulty) (*domain.Question, error) {
	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(questionSystemPrompt, slot.qtype, difficulty, slot.context, slot.qtype),
		User:        fmt.Sprintf("Generate a %s question about: %s", slot.qtype, slot.topic),
		Temperature: domain.TemperatureQuiz,
	})
	if err != nil {
		return nil, err
	}
	data, err := llmjson.Object[questionPayload](raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(data.Question) == "" || strings.TrimSpace(data.CorrectAnswer) == "" {
		return nil, errors.New("question or correct answer missing")
	}

	q := &domain.Question{
		ID:                util.NewULID(),
		Text:              strings.TrimSpace(data.Question),
		Type:              slot.qtype,
		CorrectAnswer:     strings.TrimSpace(data.CorrectAnswer),
		StructureTested:   orDefault(data.StructureTested, orDefault(slot.structure, "Unknown")),
		Difficulty:        difficulty,
		LearningObjective: orDefault(data.LearningObjective, "Understand neuroanatomy"),
		SourceChunkID:     slot.chunkID,
		Explanation:       strings.TrimSpace(data.Explanation),
	}
	if slot.qtype == domain.QuestionMCQ {
		q.Options = []string(data.Options)
	}
	return q, nil
}

// bankQuestions cycles the fixed bank to exactly count questions, each with
// a fresh id.
func bankQuestions(count int, difficulty domain.Difficulty) []*domain.Question {
	out := make([]*domain.Question, count)
	for i := range out {
		q := fallbackQuestions[i%len(fallbackQuestions)]
		q.ID = util.NewULID()
		q.Difficulty = difficulty
		q.Options = append([]string(nil), q.Options...)
		out[i] = &q
	}
	return out
}

// ownedQuestion loads a question after checking quiz ownership.
func (s *quizService) ownedQuestion(ctx context.Context, quizID, questionID, userID string) (*domain.Question, error) {
	var question *domain.Question
	err := s.store.View(ctx, quizID, func(q *domain.Quiz) error {
		if q.UserID != userID {
			return domain.NewPermissionDeniedError("user does not have access to this quiz")
		}
		question = q.Questions[questionID]
		if question == nil {
			return domain.NewNotFoundError("question not found in quiz").WithContext("question_id", questionID)
		}
		return nil
	})
	if err != nil {
		return nil, quizStoreError(err, quizID)
	}
	return question, nil
}

func (s *quizService) SubmitAnswer(ctx context.Context, quizID, questionID, answer, userID string) (*SubmitResult, error) {
	question, err := s.ownedQuestion(ctx, quizID, questionID, userID)
	if err != nil {
		return nil, err
	}

	feedback := s.judge(ctx, question, answer)

	var result SubmitResult
	_, err = s.store.Update(ctx, quizID, func(q *domain.Quiz) (*domain.Quiz, error) {
		if q.UserID != userID {
			return nil, domain.NewPermissionDeniedError("user does not have access to this quiz")
		}
		if !q.Record(questionID, domain.AnswerRecord{
			Answer:     answer,
			Feedback:   feedback,
			IsCorrect:  feedback.IsCorrect,
			AnsweredAt: s.now(),
		}) {
			return nil, domain.NewNotFoundError("question not found in quiz").WithContext("question_id", questionID)
		}
		result = SubmitResult{
			Feedback:          feedback,
			Score:             q.Score(),
			TotalQuestions:    len(q.Questions),
			QuestionsAnswered: len(q.Answers),
		}
		return q, nil
	})
	if err != nil {
		return nil, quizStoreError(err, quizID)
	}

	logger.Get().Info("Quiz answer recorded",
		zap.String("quiz_id", quizID),
		zap.String("question_id", questionID),
		zap.Bool("is_correct", feedback.IsCorrect),
		zap.Float64("score", result.Score),
	)
	return &result, nil
}

type feedbackPayload struct {
	IsCorrect      bool   `json:"is_correct"`
	Feedback       string `json:"feedback"`
	Explanation    string `json:"explanation"`
	RelatedAnatomy string `json:"related_anatomy"`
}

// judge asks the model for a verdict and falls back to an exact,
// case-insensitive comparison with the stored answer.
func (s *quizService) judge(ctx context.Context, q *domain.Question, answer string) domain.AnswerFeedback {
	var embedding []float32
	if s.embedder != nil && strings.TrimSpace(answer) != "" {
		vec, err := s.embedder.Generate(ctx, answer)
		if err != nil {
			logger.Get().Warn("Answer embedding failed, skipping feedback cache", zap.Error(err))
		} else {
			embedding = vec
			cached, err := s.feedbackCache.Get(ctx, q.ID, embedding)
			if err != nil {
				logger.Get().Error("Feedback cache lookup failed", zap.String("question_id", q.ID), zap.Error(err))
			} else if cached != nil {
				return *cached
			}
		}
	}

	explanation := q.Explanation
	if explanation == "" {
		explanation = fmt.Sprintf("The correct answer is %s because it accurately describes the neuroanatomical structure or pathway.", q.CorrectAnswer)
	}
	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(feedbackSystemPrompt, q.Text, q.CorrectAnswer, answer, explanation, q.StructureTested),
		User:        "Provide feedback on this answer.",
		Temperature: domain.TemperatureQuiz,
	})
	if err != nil {
		logger.Get().Warn("Feedback generation failed, using exact match", zap.String("question_id", q.ID), zap.Error(err))
		return exactMatchFeedback(q, answer)
	}
	data, err := llmjson.Object[feedbackPayload](raw)
	if err != nil {
		logger.Get().Warn("Unparseable feedback, using exact match", zap.String("question_id", q.ID), zap.Error(err))
		return exactMatchFeedback(q, answer)
	}

	fb := domain.AnswerFeedback{
		IsCorrect:      data.IsCorrect,
		Feedback:       data.Feedback,
		Explanation:    data.Explanation,
		CorrectAnswer:  q.CorrectAnswer,
		RelatedAnatomy: orDefault(data.RelatedAnatomy, q.StructureTested),
	}
	if err := s.feedbackCache.Put(ctx, q.ID, answer, embedding, fb); err != nil {
		logger.Get().Error("Failed to cache feedback", zap.String("question_id", q.ID), zap.Error(err))
	}
	return fb
}

func exactMatchFeedback(q *domain.Question, answer string) domain.AnswerFeedback {
	correct := util.NormalizeAnswer(answer) == util.NormalizeAnswer(q.CorrectAnswer)
	msg := "Incorrect. Try again."
	if correct {
		msg = "Correct!"
	}
	return domain.AnswerFeedback{
		IsCorrect:      correct,
		Feedback:       msg,
		Explanation:    "The correct answer is: " + q.CorrectAnswer,
		CorrectAnswer:  q.CorrectAnswer,
		RelatedAnatomy: q.StructureTested,
	}
}

func (s *quizService) Feedback(ctx context.Context, quizID, questionID, userID string) (*domain.AnswerFeedback, error) {
	var fb domain.AnswerFeedback
	err := s.store.View(ctx, quizID, func(q *domain.Quiz) error {
		if q.UserID != userID {
			return domain.NewPermissionDeniedError("user does not have access to this quiz")
		}
		rec, ok := q.Answers[questionID]
		if !ok {
			return domain.NewNotFoundError("answer not found").WithContext("question_id", questionID)
		}
		fb = rec.Feedback
		return nil
	})
	if err != nil {
		return nil, quizStoreError(err, quizID)
	}
	return &fb, nil
}

// Progress summarises every live quiz owned by userID. Topics averaging at
// least 0.8 are strengths; answered topics below 0.6 need work.
func (s *quizService) Progress(ctx context.Context, userID string) (*domain.UserProgress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewInvalidInputError("user_id is required")
	}

	type topicStats struct {
		scores     []float64
		difficulty domain.Difficulty
		latest     time.Time
	}
	topics := map[string]*topicStats{}
	progress := &domain.UserProgress{
		UserID:                userID,
		TopicsStudied:         []string{},
		QuizScores:            map[string]float64{},
		DifficultyProgression: map[string]domain.Difficulty{},
		Strengths:             []string{},
		AreasForImprovement:   []string{},
	}

	err := s.store.Range(ctx, func(_ string, q *domain.Quiz) bool {
		if q.UserID != userID {
			return true
		}
		progress.QuizzesTaken++
		ts := topics[q.Topic]
		if ts == nil {
			ts = &topicStats{}
			topics[q.Topic] = ts
		}
		if len(q.Answers) > 0 {
			ts.scores = append(ts.scores, q.Score())
		}
		if !q.CreatedAt.Before(ts.latest) {
			ts.latest = q.CreatedAt
			ts.difficulty = q.Difficulty
		}
		if q.CreatedAt.After(progress.LastActive) {
			progress.LastActive = q.CreatedAt
		}
		for _, a := range q.Answers {
			if a.AnsweredAt.After(progress.LastActive) {
				progress.LastActive = a.AnsweredAt
			}
		}
		return true
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to read quizzes", err)
	}

	for topic, ts := range topics {
		progress.TopicsStudied = append(progress.TopicsStudied, topic)
		progress.DifficultyProgression[topic] = ts.difficulty
		avg := 0.0
		for _, sc := range ts.scores {
			avg += sc
		}
		if len(ts.scores) > 0 {
			avg /= float64(len(ts.scores))
		}
		progress.QuizScores[topic] = avg
		switch {
		case len(ts.scores) == 0:
		case avg >= 0.8:
			progress.Strengths = append(progress.Strengths, topic)
		case avg < 0.6:
			progress.AreasForImprovement = append(progress.AreasForImprovement, topic)
		}
	}
	sort.Strings(progress.TopicsStudied)
	sort.Strings(progress.Strengths)
	sort.Strings(progress.AreasForImprovement)
	return progress, nil
}

func quizStoreError(err error, quizID string) error {
	if errors.Is(err, session.ErrNotFound) {
		return domain.NewNotFoundError("quiz not found").WithContext("quiz_id", quizID)
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.NewInternalError("quiz store failure", err)
}
