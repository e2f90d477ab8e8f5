package dto

// ClinicalStartRequest opens a simulated encounter.
type ClinicalStartRequest struct {
	Topic           string `json:"topic,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	SystemFilter    string `json:"system_filter,omitempty"`
}

// ClinicalInteractRequest is one learner turn.
// @Description user_message may be empty when request_hint is true
type ClinicalInteractRequest struct {
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
	RequestHint bool   `json:"request_hint"`
}
