package dto

import "neurabuddy/internal/domain"

// FlashCardRequest generates a flash-card deck.
type FlashCardRequest struct {
	Topic           string `json:"topic,omitempty"`
	NumCards        int    `json:"num_cards,omitempty" example:"10"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	SystemFilter    string `json:"system_filter,omitempty"`
}

// FlashCardAnswerRequest grades one recall attempt.
type FlashCardAnswerRequest struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	UserAnswer    string `json:"user_answer"`
}

// FlashCardSessionCompleteRequest submits a finished session for analysis.
type FlashCardSessionCompleteRequest struct {
	Topic       string                   `json:"topic"`
	TotalScore  float64                  `json:"total_score"`
	MaxScore    float64                  `json:"max_score"`
	CardResults []domain.FlashCardResult `json:"card_results"`
}

// StudyRequest selects material for clinical cases and study notes.
type StudyRequest struct {
	Topic           string `json:"topic,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	SystemFilter    string `json:"system_filter,omitempty"`
	IncludeSummary  *bool  `json:"include_summary,omitempty"`
}
