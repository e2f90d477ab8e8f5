package domain

import (
	"time"
)

// QuestionType is the format of a quiz question.
type QuestionType string

const (
	QuestionMCQ              QuestionType = "mcq"
	QuestionShortAnswer      QuestionType = "short_answer"
	QuestionClinicalVignette QuestionType = "clinical_vignette"
)

// QuestionTypeRotation is the order question types are assigned to slots.
var QuestionTypeRotation = []QuestionType{QuestionMCQ, QuestionShortAnswer, QuestionClinicalVignette}

// Question is immutable once generated.
type Question struct {
	ID                string       `json:"question_id"`
	Text              string       `json:"question"`
	Type              QuestionType `json:"question_type"`
	Options           []string     `json:"options,omitempty"`
	CorrectAnswer     string       `json:"correct_answer"`
	StructureTested   string       `json:"structure_tested"`
	Difficulty        Difficulty   `json:"difficulty"`
	LearningObjective string       `json:"learning_objective"`
	SourceChunkID     string       `json:"source_chunk_id,omitempty"`
	Explanation       string       `json:"explanation,omitempty"`
}

// AnswerFeedback is the judgement of a single answer.
type AnswerFeedback struct {
	IsCorrect      bool   `json:"is_correct"`
	Feedback       string `json:"feedback"`
	Explanation    string `json:"explanation"`
	CorrectAnswer  string `json:"correct_answer"`
	RelatedAnatomy string `json:"related_anatomy"`
}

// AnswerRecord is the latest submission for a question.
type AnswerRecord struct {
	Answer     string         `json:"answer"`
	Feedback   AnswerFeedback `json:"feedback"`
	IsCorrect  bool           `json:"is_correct"`
	AnsweredAt time.Time      `json:"answered_at"`
}

// Quiz is owned by a single user. Answers keys are always a subset of
// Questions keys.
type Quiz struct {
	ID         string                  `json:"quiz_id"`
	UserID     string                  `json:"user_id"`
	Topic      string                  `json:"topic"`
	Difficulty Difficulty              `json:"difficulty_level"`
	Questions  map[string]*Question    `json:"-"`
	Order      []string                `json:"-"`
	Answers    map[string]AnswerRecord `json:"-"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NewQuiz builds a quiz preserving the question order.
func NewQuiz(id, userID, topic string, difficulty Difficulty, questions []*Question, now time.Time) *Quiz {
	q := &Quiz{
		ID:         id,
		UserID:     userID,
		Topic:      topic,
		Difficulty: difficulty,
		Questions:  make(map[string]*Question, len(questions)),
		Order:      make([]string, 0, len(questions)),
		Answers:    make(map[string]AnswerRecord),
		CreatedAt:  now,
	}
	for _, question := range questions {
		q.Questions[question.ID] = question
		q.Order = append(q.Order, question.ID)
	}
	return q
}

// OrderedQuestions returns the questions in generation order.
func (q *Quiz) OrderedQuestions() []*Question {
	out := make([]*Question, 0, len(q.Order))
	for _, id := range q.Order {
		out = append(out, q.Questions[id])
	}
	return out
}

// Record stores (or overwrites) the answer for a known question.
func (q *Quiz) Record(questionID string, rec AnswerRecord) bool {
	if _, ok := q.Questions[questionID]; !ok {
		return false
	}
	q.Answers[questionID] = rec
	return true
}

// CorrectCount counts answers currently judged correct.
func (q *Quiz) CorrectCount() int {
	n := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// Score is correct answers divided by the total number of questions, so it
// never decreases when an unanswered question is answered.
func (q *Quiz) Score() float64 {
	if len(q.Questions) == 0 {
		return 0
	}
	return float64(q.CorrectCount()) / float64(len(q.Questions))
}

// UserProgress aggregates a learner's quizzes.
type UserProgress struct {
	UserID                string                `json:"user_id"`
	TopicsStudied         []string              `json:"topics_studied"`
	QuizScores            map[string]float64    `json:"quiz_scores"`
	DifficultyProgression map[string]Difficulty `json:"difficulty_progression"`
	Strengths             []string              `json:"strengths"`
	AreasForImprovement   []string              `json:"areas_for_improvement"`
	QuizzesTaken          int                   `json:"quizzes_taken"`
	LastActive            time.Time             `json:"last_active"`
}
