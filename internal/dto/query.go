package dto

import "neurabuddy/internal/retrieval"

// QueryRequest asks a question of the knowledge base.
// @Description Learner question with optional retrieval constraints
type QueryRequest struct {
	Query           string `json:"query" example:"What does the hippocampus do?"`
	UserID          string `json:"user_id,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty" example:"undergrad"`
	SystemFilter    string `json:"system_filter,omitempty" example:"limbic"`
	ClinicalOnly    bool   `json:"clinical_only"`
}

// QueryResponse is a grounded answer with citations.
type QueryResponse struct {
	Answer     string             `json:"answer"`
	Sources    []retrieval.Source `json:"sources"`
	Confidence float64            `json:"confidence"`
	Intent     string             `json:"intent"`
}

// TeachRequest continues a Socratic dialogue.
type TeachRequest struct {
	Topic             string   `json:"topic" example:"cranial nerves"`
	UserID            string   `json:"user_id"`
	DifficultyLevel   string   `json:"difficulty_level,omitempty"`
	PreviousResponses []string `json:"previous_responses,omitempty"`
}
