package domain

import (
	"fmt"
	"slices"
	"time"
)

// ClinicalStage is a step of a simulated encounter. Stages only move
// forward: initial -> gathering_info -> diagnosis -> complete.
type ClinicalStage string

const (
	StageInitial       ClinicalStage = "initial"
	StageGatheringInfo ClinicalStage = "gathering_info"
	StageDiagnosis     ClinicalStage = "diagnosis"
	StageComplete      ClinicalStage = "complete"
)

func (s ClinicalStage) rank() int {
	switch s {
	case StageInitial:
		return 0
	case StageGatheringInfo:
		return 1
	case StageDiagnosis:
		return 2
	case StageComplete:
		return 3
	}
	return -1
}

// ClinicalEvent drives stage transitions.
type ClinicalEvent string

const (
	// EventEnoughQuestions fires once the student has asked enough questions
	// to leave the opening stage.
	EventEnoughQuestions ClinicalEvent = "enough_questions"
	// EventReadyForDiagnosis fires when gathered information suffices.
	EventReadyForDiagnosis ClinicalEvent = "ready_for_diagnosis"
	// EventCaseClosed fires on a completed diagnosis or early termination.
	EventCaseClosed ClinicalEvent = "case_closed"
)

// Transition returns the stage after applying ev to s. Events that would
// move the stage backwards, or that do not apply, are rejected.
func Transition(s ClinicalStage, ev ClinicalEvent) (ClinicalStage, error) {
	var next ClinicalStage
	switch ev {
	case EventEnoughQuestions:
		next = StageGatheringInfo
	case EventReadyForDiagnosis:
		next = StageDiagnosis
	case EventCaseClosed:
		next = StageComplete
	default:
		return s, fmt.Errorf("unknown clinical event %q", ev)
	}
	if s == StageComplete {
		return s, fmt.Errorf("session already complete")
	}
	if next.rank() < s.rank() {
		return s, fmt.Errorf("cannot move from %s back to %s", s, next)
	}
	if ev == EventReadyForDiagnosis && s == StageInitial {
		return s, fmt.Errorf("cannot reach diagnosis before gathering information")
	}
	return next, nil
}

// ConversationTurn is one message of the encounter transcript.
type ConversationTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// CompletionReport summarises a finished clinical session.
type CompletionReport struct {
	PerformanceSummary     string   `json:"performance_summary"`
	CorrectDecisions       []string `json:"correct_decisions"`
	MissedPoints           []string `json:"missed_points"`
	ClinicalReasoningScore float64  `json:"clinical_reasoning_score"`
	FinalDiagnosisCorrect  bool     `json:"final_diagnosis_correct"`
	LearningPoints         []string `json:"learning_points"`
	RecommendedTopics      []string `json:"recommended_topics"`
}

// ClinicalSession is the state of one simulated encounter.
type ClinicalSession struct {
	ID                  string             `json:"session_id"`
	PatientName         string             `json:"patient_name"`
	Topic               string             `json:"topic"`
	Difficulty          Difficulty         `json:"difficulty"`
	Stage               ClinicalStage      `json:"stage"`
	Context             string             `json:"-"`
	InitialPresentation string             `json:"initial_presentation"`
	History             []ConversationTurn `json:"conversation_history"`
	InformationGathered []string           `json:"information_gathered"`
	QuestionsAsked      int                `json:"questions_asked"`
	CorrectDecisions    []string           `json:"correct_decisions"`
	IncorrectDecisions  []string           `json:"incorrect_decisions"`
	HintsUsed           int                `json:"hints_used"`
	MaxHints            int                `json:"max_hints"`
	Reprompts           int                `json:"-"`
	Report              *CompletionReport  `json:"completion_data,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// Clone returns a deep copy that shares no slices with s.
func (s *ClinicalSession) Clone() *ClinicalSession {
	c := *s
	c.History = slices.Clone(s.History)
	c.InformationGathered = slices.Clone(s.InformationGathered)
	c.CorrectDecisions = slices.Clone(s.CorrectDecisions)
	c.IncorrectDecisions = slices.Clone(s.IncorrectDecisions)
	if s.Report != nil {
		r := *s.Report
		r.CorrectDecisions = slices.Clone(s.Report.CorrectDecisions)
		r.MissedPoints = slices.Clone(s.Report.MissedPoints)
		r.LearningPoints = slices.Clone(s.Report.LearningPoints)
		r.RecommendedTopics = slices.Clone(s.Report.RecommendedTopics)
		c.Report = &r
	}
	return &c
}

// Apply advances the session stage. Rejected transitions leave the stage
// unchanged.
func (s *ClinicalSession) Apply(ev ClinicalEvent) error {
	next, err := Transition(s.Stage, ev)
	if err != nil {
		return err
	}
	s.Stage = next
	return nil
}

// HintsRemaining is never negative.
func (s *ClinicalSession) HintsRemaining() int {
	if s.HintsUsed >= s.MaxHints {
		return 0
	}
	return s.MaxHints - s.HintsUsed
}

func (s *ClinicalSession) AddTurn(role, message string) {
	s.History = append(s.History, ConversationTurn{Role: role, Message: message})
}

// ClinicalTurn is the engine's response to one student interaction.
type ClinicalTurn struct {
	AIResponse          string            `json:"ai_response"`
	RevealedInformation string            `json:"revealed_information,omitempty"`
	Stage               ClinicalStage     `json:"stage"`
	RequiresAnswer      bool              `json:"requires_answer"`
	QuestionPosed       string            `json:"question_posed,omitempty"`
	IsCorrectPath       *bool             `json:"is_correct_path,omitempty"`
	Guidance            string            `json:"guidance,omitempty"`
	HintGiven           string            `json:"hint_given,omitempty"`
	AvailableHints      int               `json:"available_hints"`
	SessionComplete     bool              `json:"session_complete"`
	CompletionData      *CompletionReport `json:"completion_data,omitempty"`
}
