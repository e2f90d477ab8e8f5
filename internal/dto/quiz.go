package dto

import "neurabuddy/internal/domain"

// QuizStartRequest creates a quiz for a learner.
// @Description Zero num_questions uses the configured default
type QuizStartRequest struct {
	UserID          string `json:"user_id"`
	Topic           string `json:"topic,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	SystemFilter    string `json:"system_filter,omitempty"`
	NumQuestions    int    `json:"num_questions,omitempty" example:"5"`
}

// QuizQuestionResponse is a question as served to the learner.
type QuizQuestionResponse struct {
	QuestionID        string   `json:"question_id"`
	Question          string   `json:"question"`
	QuestionType      string   `json:"question_type"`
	Options           []string `json:"options,omitempty"`
	StructureTested   string   `json:"structure_tested"`
	Difficulty        string   `json:"difficulty"`
	LearningObjective string   `json:"learning_objective"`
	SourceChunkID     string   `json:"source_chunk_id,omitempty"`
}

// QuizStartResponse carries the new quiz.
type QuizStartResponse struct {
	QuizID          string                 `json:"quiz_id"`
	Questions       []QuizQuestionResponse `json:"questions"`
	Topic           string                 `json:"topic"`
	DifficultyLevel string                 `json:"difficulty_level"`
}

// QuizAnswerRequest submits one answer.
type QuizAnswerRequest struct {
	QuizID     string `json:"quiz_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	UserID     string `json:"user_id"`
}

// QuizAnswerResponse is the judged answer and the running score.
type QuizAnswerResponse struct {
	Feedback          domain.AnswerFeedback `json:"feedback"`
	Score             float64               `json:"score"`
	TotalQuestions    int                   `json:"total_questions"`
	QuestionsAnswered int                   `json:"questions_answered"`
}

// ProgressResponse wraps a learner's aggregated progress.
type ProgressResponse struct {
	Progress domain.UserProgress `json:"progress"`
}

// NewQuizStartResponse hides correct answers and explanations.
func NewQuizStartResponse(q *domain.Quiz) QuizStartResponse {
	questions := make([]QuizQuestionResponse, 0, len(q.Questions))
	for _, qq := range q.OrderedQuestions() {
		questions = append(questions, QuizQuestionResponse{
			QuestionID:        qq.ID,
			Question:          qq.Text,
			QuestionType:      string(qq.Type),
			Options:           qq.Options,
			StructureTested:   qq.StructureTested,
			Difficulty:        string(qq.Difficulty),
			LearningObjective: qq.LearningObjective,
			SourceChunkID:     qq.SourceChunkID,
		})
	}
	return QuizStartResponse{
		QuizID:          q.ID,
		Questions:       questions,
		Topic:           q.Topic,
		DifficultyLevel: string(q.Difficulty),
	}
}
