package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testQuiz() *Quiz {
	questions := []*Question{
		{ID: "q1", Text: "One?", CorrectAnswer: "a"},
		{ID: "q2", Text: "Two?", CorrectAnswer: "b"},
		{ID: "q3", Text: "Three?", CorrectAnswer: "c"},
		{ID: "q4", Text: "Four?", CorrectAnswer: "d"},
	}
	return NewQuiz("quiz-1", "user-1", "brainstem", DifficultyMed, questions, time.Now())
}

func TestQuiz_OrderPreserved(t *testing.T) {
	q := testQuiz()
	ids := make([]string, 0)
	for _, question := range q.OrderedQuestions() {
		ids = append(ids, question.ID)
	}
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, ids)
}

func TestQuiz_RecordRejectsUnknownQuestion(t *testing.T) {
	q := testQuiz()
	assert.False(t, q.Record("nope", AnswerRecord{IsCorrect: true}))
	assert.Empty(t, q.Answers)
}

func TestQuiz_ScoreDividesByTotalQuestions(t *testing.T) {
	q := testQuiz()
	assert.Equal(t, 0.0, q.Score())

	q.Record("q1", AnswerRecord{IsCorrect: true})
	assert.Equal(t, 0.25, q.Score())

	q.Record("q2", AnswerRecord{IsCorrect: false})
	assert.Equal(t, 0.25, q.Score())

	q.Record("q3", AnswerRecord{IsCorrect: true})
	assert.Equal(t, 0.5, q.Score())

	// resubmission overwrites
	q.Record("q1", AnswerRecord{IsCorrect: false})
	assert.Equal(t, 0.25, q.Score())
	assert.Len(t, q.Answers, 3)
}

func TestQuiz_ScoreEmpty(t *testing.T) {
	q := NewQuiz("quiz-2", "u", "", DifficultyUndergrad, nil, time.Now())
	assert.Equal(t, 0.0, q.Score())
}
