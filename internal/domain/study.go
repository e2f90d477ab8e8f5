package domain

// FlashCard is a front/back recall prompt.
type FlashCard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashCardEvaluation grades one recall attempt. Score is 0, 0.5 or 1.
type FlashCardEvaluation struct {
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
	IsCorrect bool    `json:"is_correct"`
	IsPartial bool    `json:"is_partial"`
}

// FlashCardResult is one graded card submitted for session analysis.
type FlashCardResult struct {
	Question      string  `json:"question"`
	CorrectAnswer string  `json:"correct_answer"`
	UserAnswer    string  `json:"user_answer"`
	Score         float64 `json:"score"`
	Feedback      string  `json:"feedback,omitempty"`
}

// SessionAnalysis is the personalised summary of a flash-card session.
type SessionAnalysis struct {
	PerformanceSummary string     `json:"performance_summary"`
	Strengths          []string   `json:"strengths"`
	AreasToImprove     []string   `json:"areas_to_improve"`
	RecommendedTopics  []string   `json:"recommended_topics"`
	NextDifficulty     Difficulty `json:"next_difficulty"`
}

// ClinicalCase is a one-shot teaching vignette.
type ClinicalCase struct {
	Case       string     `json:"case"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
}

// StudyNotes is markdown study material for a topic.
type StudyNotes struct {
	Notes      string     `json:"notes"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
}

// TeachingStage paces a Socratic dialogue.
type TeachingStage string

const (
	StageIntroduction TeachingStage = "introduction"
	StageExploration  TeachingStage = "exploration"
	StageDeepening    TeachingStage = "deepening"
	StageSynthesis    TeachingStage = "synthesis"
)

// TeachingStageFor maps the number of prior learner responses to a stage.
func TeachingStageFor(responses int) TeachingStage {
	switch {
	case responses <= 0:
		return StageIntroduction
	case responses < 2:
		return StageExploration
	case responses < 4:
		return StageDeepening
	}
	return StageSynthesis
}

// TeachingTurn is one tutor move. Empty optional fields are omitted.
type TeachingTurn struct {
	Question        string        `json:"question,omitempty"`
	Explanation     string        `json:"explanation,omitempty"`
	Hint            string        `json:"hint,omitempty"`
	IsComplete      bool          `json:"is_complete"`
	NextStep        string        `json:"next_step"`
	ConceptsCovered []string      `json:"concepts_covered"`
	Stage           TeachingStage `json:"stage"`
}
