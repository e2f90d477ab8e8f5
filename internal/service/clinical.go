package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
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
)

const (
	clinicalContextFallback = "General neuroanatomy clinical knowledge"
	clinicalTopK            = 3
	clinicalContextPerChunk = 800

	// questionsBeforeGathering moves the case out of the opening stage;
	// questionsBeforeReadiness starts readiness checks.
	questionsBeforeGathering = 2
	questionsBeforeReadiness = 3

	diagnosisSignalMinLength = 40
	diagnosisSignalMinHits   = 2
)

// StartClinicalParams selects the case to simulate.
type StartClinicalParams struct {
	Topic      string
	Difficulty domain.Difficulty
	System     domain.System
}

// ClinicalStart is returned when a new case opens.
type ClinicalStart struct {
	SessionID           string               `json:"session_id"`
	InitialPresentation string               `json:"initial_presentation"`
	PatientName         string               `json:"patient_name"`
	ScenarioContext     string               `json:"scenario_context"`
	Stage               domain.ClinicalStage `json:"stage"`
	AvailableHints      int                  `json:"available_hints"`
}

// ClinicalService runs interactive clinical encounters.
type ClinicalService interface {
	Start(ctx context.Context, p StartClinicalParams) (*ClinicalStart, error)
	Interact(ctx context.Context, sessionID, message string, requestHint bool) (*domain.ClinicalTurn, error)
}

type clinicalService struct {
	index retrieval.Searcher
	llm   domain.TextGenerator
	store session.Store[*domain.ClinicalSession]
	cfg   *config.Config
	now   func() time.Time
	pick  func(n int) int
}

func NewClinicalService(
	index retrieval.Searcher,
	llm domain.TextGenerator,
	store session.Store[*domain.ClinicalSession],
	cfg *config.Config,
) ClinicalService {
	return &clinicalService{
		index: index,
		llm:   llm,
		store: store,
		cfg:   cfg,
		now:   time.Now,
		pick:  rand.Intn,
	}
}

// Start opens a case. Retrieval and presentation failures degrade to a
// templated scene, so Start only fails when the session cannot be stored.
func (s *clinicalService) Start(ctx context.Context, p StartClinicalParams) (*ClinicalStart, error) {
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyUndergrad
	}
	topic := orDefault(p.Topic, "a neurological emergency")
	query := orDefault(p.Topic, "clinical neuroanatomy case")

	relaxed := s.cfg.Index.RelaxedMinScore
	res := retrieval.Tolerant(ctx, s.index, clinicalTopK, []retrieval.Tier{
		{Name: "clinical", Query: query, Filter: domain.NewFilter("", p.System, true), MinScore: relaxed},
		{Name: "unfiltered_relaxed", Query: query, MinScore: relaxed},
		{Name: "fallback", Query: query, MinScore: s.cfg.Index.FallbackMinScore},
	})
	caseContext := clinicalContextFallback
	if !res.Empty() {
		caseContext = joinContents(res.Chunks, clinicalContextPerChunk)
	}

	name := patientFirstNames[s.pick(len(patientFirstNames))] + " " + patientLastNames[s.pick(len(patientLastNames))]

	presentation, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(presentationSystemPrompt, caseContext, topic),
		User:        fmt.Sprintf("Create the initial presentation for patient %s.", name),
		Temperature: domain.TemperatureStudy,
	})
	presentation = llmjson.Text(presentation, "")
	if err != nil || presentation == "" {
		logger.Get().Warn("Presentation generation failed, using template", zap.Error(err))
		presentation = templatedPresentation(name, topic)
	}

	cs := &domain.ClinicalSession{
		ID:                  util.NewULID(),
		PatientName:         name,
		Topic:               topic,
		Difficulty:          difficulty,
		Stage:               domain.StageInitial,
		Context:             caseContext,
		InitialPresentation: presentation,
		InformationGathered: []string{},
		CorrectDecisions:    []string{},
		IncorrectDecisions:  []string{},
		MaxHints:            s.cfg.Session.MaxHints,
		CreatedAt:           s.now(),
	}
	cs.AddTurn("assistant", presentation)

	if err := s.store.Put(ctx, cs.ID, cs); err != nil {
		return nil, domain.NewInternalError("failed to store clinical session", err)
	}

	logger.Get().Info("Clinical session started",
		zap.String("session_id", cs.ID),
		zap.String("topic", topic),
		zap.String("retrieval_tier", res.Tier),
	)
	return &ClinicalStart{
		SessionID:           cs.ID,
		InitialPresentation: presentation,
		PatientName:         name,
		ScenarioContext:     fmt.Sprintf("You are now in the OR/ER with patient %s. Ask questions to gather information and make clinical decisions.", name),
		Stage:               cs.Stage,
		AvailableHints:      cs.HintsRemaining(),
	}, nil
}

func templatedPresentation(name, topic string) string {
	return fmt.Sprintf("**%s**, 58, is brought in by ambulance with sudden neurological deficits related to %s. "+
		"**BP 168/94, HR 92, SpO2 97%%.** The patient is awake but visibly distressed. "+
		"The team is waiting for your first question.", name, topic)
}

// Interact handles one student message. The whole turn runs under the
// session's lock, so concurrent messages for one case are applied in order.
func (s *clinicalService) Interact(ctx context.Context, sessionID, message string, requestHint bool) (*domain.ClinicalTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" && !requestHint {
		return nil, domain.NewInvalidInputError("message is required")
	}

	var turn *domain.ClinicalTurn
	_, err := s.store.Update(ctx, sessionID, func(cs *domain.ClinicalSession) (*domain.ClinicalSession, error) {
		// A failed step must not leave half-applied changes in the store.
		next := cs.Clone()
		t, err := s.step(ctx, next, message, requestHint)
		if err != nil {
			return nil, err
		}
		turn = t
		return next, nil
	})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, domain.NewNotFoundError("clinical session not found").WithContext("session_id", sessionID)
		}
		var de *domain.DomainError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.NewInternalError("clinical session update failed", err)
	}
	return turn, nil
}

func (s *clinicalService) step(ctx context.Context, cs *domain.ClinicalSession, message string, requestHint bool) (*domain.ClinicalTurn, error) {
	if cs.Stage == domain.StageComplete {
		report := s.ensureReport(ctx, cs)
		return &domain.ClinicalTurn{
			AIResponse:      "This case is complete. Review your performance summary below.",
			Stage:           cs.Stage,
			AvailableHints:  cs.HintsRemaining(),
			SessionComplete: true,
			CompletionData:  report,
		}, nil
	}

	if requestHint {
		if cs.HintsRemaining() > 0 {
			return s.hint(ctx, cs, message), nil
		}
		if message == "" {
			return &domain.ClinicalTurn{
				AIResponse:     "You have used all available hints. Keep working through the case.",
				Stage:          cs.Stage,
				AvailableHints: 0,
			}, nil
		}
	}

	cs.AddTurn("student", message)

	if isEndCase(message) {
		if err := cs.Apply(domain.EventCaseClosed); err != nil {
			return nil, domain.NewInternalError("cannot close case", err)
		}
		report := s.ensureReport(ctx, cs)
		logger.Get().Info("Clinical session ended by student", zap.String("session_id", cs.ID))
		return &domain.ClinicalTurn{
			AIResponse:      "Case closed. Here is your performance summary.",
			Stage:           cs.Stage,
			AvailableHints:  cs.HintsRemaining(),
			SessionComplete: true,
			CompletionData:  report,
		}, nil
	}

	switch {
	case cs.Stage == domain.StageDiagnosis:
		return s.evaluateDecision(ctx, cs, message)
	case cs.Stage == domain.StageGatheringInfo && cs.QuestionsAsked >= questionsBeforeReadiness:
		return s.checkReadiness(ctx, cs, message)
	default:
		return s.gather(ctx, cs, message)
	}
}

// isEndCase matches the termination phrases exactly or as a prefix.
func isEndCase(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	m = strings.TrimRight(m, ".,!? ")
	for _, phrase := range endCasePhrases {
		if m == phrase {
			return true
		}
		// Single words like "complete" open too many real questions.
		if strings.Contains(phrase, " ") && strings.HasPrefix(m, phrase+" ") {
			return true
		}
	}
	return false
}

func (s *clinicalService) hint(ctx context.Context, cs *domain.ClinicalSession, message string) *domain.ClinicalTurn {
	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(clinicalHintSystemPrompt, cs.Stage, transcript(cs.History, 6), orDefault(message, "(none)")),
		User:        "Give me a hint.",
		Temperature: domain.TemperatureStudy,
	})
	hint := llmjson.Text(raw, "")
	if err != nil || hint == "" {
		logger.Get().Warn("Hint generation failed, using template", zap.String("session_id", cs.ID), zap.Error(err))
		hint = "Which structures could explain every finding so far? What would you examine next to tell them apart?"
	}
	cs.HintsUsed++
	return &domain.ClinicalTurn{
		AIResponse:     "Here's a hint to guide you:",
		Stage:          cs.Stage,
		HintGiven:      hint,
		AvailableHints: cs.HintsRemaining(),
	}
}

func (s *clinicalService) gather(ctx context.Context, cs *domain.ClinicalSession, message string) (*domain.ClinicalTurn, error) {
	cs.QuestionsAsked++
	cs.InformationGathered = append(cs.InformationGathered, message)

	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(staffSystemPrompt, message, cs.Context, cs.InitialPresentation, transcript(cs.History, 6)),
		User:        message,
		Temperature: domain.TemperatureStudy,
	})
	reply := llmjson.Text(raw, "")
	if err != nil || reply == "" {
		logger.Get().Warn("Staff reply failed, using template", zap.String("session_id", cs.ID), zap.Error(err))
		reply = "The team is still working on that. Try asking about the history, the neurological examination, or imaging."
	}
	cs.AddTurn("assistant", reply)

	if cs.Stage == domain.StageInitial && cs.QuestionsAsked >= questionsBeforeGathering {
		if err := cs.Apply(domain.EventEnoughQuestions); err != nil {
			return nil, domain.NewInternalError("cannot advance case", err)
		}
	}
	return &domain.ClinicalTurn{
		AIResponse:          reply,
		RevealedInformation: reply,
		Stage:               cs.Stage,
		AvailableHints:      cs.HintsRemaining(),
	}, nil
}

type readinessPayload struct {
	ReadyForDiagnosis   bool    `json:"ready_for_diagnosis"`
	TransitionMessage   string  `json:"transition_message"`
	MissingInfoQuestion *string `json:"missing_info_question"`
}

func (s *clinicalService) checkReadiness(ctx context.Context, cs *domain.ClinicalSession, message string) (*domain.ClinicalTurn, error) {
	cs.InformationGathered = append(cs.InformationGathered, message)

	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(readinessSystemPrompt, strings.Join(cs.InformationGathered, "\n"), cs.Context),
		User:        "Is the student ready for the diagnosis phase?",
		Temperature: domain.TemperatureRetrieval,
	})
	verdict := readinessPayload{ReadyForDiagnosis: true}
	if err == nil {
		if parsed, perr := llmjson.Object[readinessPayload](raw); perr == nil {
			verdict = parsed
		} else {
			logger.Get().Warn("Unparseable readiness verdict, moving to diagnosis", zap.String("session_id", cs.ID), zap.Error(perr))
		}
	} else {
		logger.Get().Warn("Readiness check failed, moving to diagnosis", zap.String("session_id", cs.ID), zap.Error(err))
	}

	if !verdict.ReadyForDiagnosis {
		cs.QuestionsAsked++
		question := ""
		if verdict.MissingInfoQuestion != nil {
			question = strings.TrimSpace(*verdict.MissingInfoQuestion)
		}
		if question == "" {
			question = "What key examination finding would help you localize the lesion?"
		}
		response := strings.TrimSpace(orDefault(verdict.TransitionMessage, "Before deciding, gather one more piece of information.") + "\n\n" + question)
		cs.AddTurn("assistant", response)
		return &domain.ClinicalTurn{
			AIResponse:     response,
			Stage:          cs.Stage,
			RequiresAnswer: true,
			QuestionPosed:  question,
			AvailableHints: cs.HintsRemaining(),
		}, nil
	}

	if err := cs.Apply(domain.EventReadyForDiagnosis); err != nil {
		return nil, domain.NewInternalError("cannot advance case", err)
	}
	question := s.diagnosisQuestion(ctx, cs)
	transition := orDefault(verdict.TransitionMessage, "You have gathered the key information. Time to make a clinical decision.")
	response := transition + "\n\n" + question
	cs.AddTurn("assistant", response)

	logger.Get().Info("Clinical session moved to diagnosis", zap.String("session_id", cs.ID), zap.Int("questions_asked", cs.QuestionsAsked))
	return &domain.ClinicalTurn{
		AIResponse:     response,
		Stage:          cs.Stage,
		RequiresAnswer: true,
		QuestionPosed:  question,
		AvailableHints: cs.HintsRemaining(),
	}, nil
}

func (s *clinicalService) diagnosisQuestion(ctx context.Context, cs *domain.ClinicalSession) string {
	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(diagnosisQuestionSystemPrompt, cs.Context, strings.Join(cs.InformationGathered, "; ")),
		User:        "Ask the diagnostic question.",
		Temperature: domain.TemperatureStudy,
	})
	question := llmjson.Text(raw, "")
	if err != nil || question == "" {
		logger.Get().Warn("Diagnosis question failed, using template", zap.String("session_id", cs.ID), zap.Error(err))
		question = fmt.Sprintf("Based on what you have gathered about %s, what is your diagnosis, and where exactly is the lesion?", cs.PatientName)
	}
	return question
}

type diagnosisPayload struct {
	IsCorrect        bool               `json:"is_correct"`
	Feedback         string             `json:"feedback"`
	GuidingQuestions llmjson.StringList `json:"guiding_questions"`
	ShouldComplete   bool               `json:"should_complete"`
}

// evaluateDecision grades a diagnostic answer. When the model's evaluation
// cannot be parsed it falls back to a keyword check, then a plain YES/NO
// query, then a re-prompt.
func (s *clinicalService) evaluateDecision(ctx context.Context, cs *domain.ClinicalSession, message string) (*domain.ClinicalTurn, error) {
	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      fmt.Sprintf(diagnosisEvalSystemPrompt, cs.Context, transcript(cs.History, 8), message),
		User:        message,
		Temperature: domain.TemperatureRetrieval,
	})
	if err == nil {
		if verdict, perr := llmjson.Object[diagnosisPayload](raw); perr == nil {
			return s.applyVerdict(ctx, cs, message, verdict)
		} else {
			logger.Get().Warn("Unparseable diagnosis evaluation", zap.String("session_id", cs.ID), zap.Error(perr))
		}
	} else {
		logger.Get().Warn("Diagnosis evaluation failed", zap.String("session_id", cs.ID), zap.Error(err))
	}

	if hasDiagnosisSignals(message) || s.confirmDiagnosis(ctx, cs, message) {
		return s.applyVerdict(ctx, cs, message, diagnosisPayload{
			IsCorrect:      true,
			Feedback:       "That's a sound localization. Let's review how you handled the case.",
			ShouldComplete: true,
		})
	}

	r := diagnosisReprompts[cs.Reprompts%len(diagnosisReprompts)]
	cs.Reprompts++
	prompt := fmt.Sprintf("%s (attempt %d)", r.prompt, cs.Reprompts)
	cs.AddTurn("assistant", prompt)
	return &domain.ClinicalTurn{
		AIResponse:     prompt,
		Stage:          cs.Stage,
		RequiresAnswer: true,
		QuestionPosed:  prompt,
		Guidance:       r.guidance,
		AvailableHints: cs.HintsRemaining(),
	}, nil
}

func hasDiagnosisSignals(message string) bool {
	if len(message) <= diagnosisSignalMinLength {
		return false
	}
	m := strings.ToLower(message)
	hits := 0
	for _, kw := range diagnosisSignals {
		if strings.Contains(m, kw) {
			hits++
		}
	}
	return hits >= diagnosisSignalMinHits
}

func (s *clinicalService) confirmDiagnosis(ctx context.Context, cs *domain.ClinicalSession, message string) bool {
	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System:      yesNoSystemPrompt,
		User:        fmt.Sprintf("Case context: %s\nStudent answer: %s", util.Truncate(cs.Context, 1500), message),
		Temperature: domain.TemperatureClassify,
	})
	if err != nil {
		logger.Get().Warn("YES/NO confirmation failed", zap.String("session_id", cs.ID), zap.Error(err))
		return false
	}
	return strings.HasPrefix(strings.ToLower(llmjson.Clean(raw)), "yes")
}

func (s *clinicalService) applyVerdict(ctx context.Context, cs *domain.ClinicalSession, message string, v diagnosisPayload) (*domain.ClinicalTurn, error) {
	correct := v.IsCorrect
	turn := &domain.ClinicalTurn{
		Stage:         cs.Stage,
		IsCorrectPath: &correct,
	}

	if !correct {
		cs.IncorrectDecisions = append(cs.IncorrectDecisions, message)
		feedback := orDefault(v.Feedback, "That doesn't fit all the findings yet.")
		guidance := strings.Join(v.GuidingQuestions, "\n")
		response := feedback
		if guidance != "" {
			response += "\n\n" + guidance
		}
		cs.AddTurn("assistant", response)
		turn.AIResponse = response
		turn.Guidance = guidance
		turn.RequiresAnswer = true
		turn.AvailableHints = cs.HintsRemaining()
		return turn, nil
	}

	cs.CorrectDecisions = append(cs.CorrectDecisions, message)
	feedback := orDefault(v.Feedback, "Correct.")
	cs.AddTurn("assistant", feedback)
	turn.AIResponse = feedback

	if v.ShouldComplete {
		if err := cs.Apply(domain.EventCaseClosed); err != nil {
			return nil, domain.NewInternalError("cannot close case", err)
		}
		turn.Stage = cs.Stage
		turn.SessionComplete = true
		turn.CompletionData = s.ensureReport(ctx, cs)
		logger.Get().Info("Clinical session completed",
			zap.String("session_id", cs.ID),
			zap.Int("correct", len(cs.CorrectDecisions)),
			zap.Int("incorrect", len(cs.IncorrectDecisions)),
		)
	} else {
		turn.RequiresAnswer = true
	}
	turn.AvailableHints = cs.HintsRemaining()
	return turn, nil
}

// ensureReport generates the completion report once and keeps it on the
// session.
func (s *clinicalService) ensureReport(ctx context.Context, cs *domain.ClinicalSession) *domain.CompletionReport {
	if cs.Report != nil {
		return cs.Report
	}

	raw, err := s.llm.Generate(ctx, domain.Prompt{
		System: fmt.Sprintf(reportSystemPrompt,
			transcript(cs.History, 0),
			strings.Join(cs.CorrectDecisions, "; "),
			strings.Join(cs.IncorrectDecisions, "; "),
			cs.HintsUsed,
		),
		User:        "Analyze my performance.",
		Temperature: domain.TemperatureRetrieval,
	})
	var report *domain.CompletionReport
	if err == nil {
		if parsed, perr := llmjson.Object[domain.CompletionReport](raw); perr == nil && parsed.PerformanceSummary != "" {
			parsed.ClinicalReasoningScore = util.Clamp01(parsed.ClinicalReasoningScore)
			report = &parsed
		}
	}
	if report == nil {
		logger.Get().Warn("Completion report fell back to counts", zap.String("session_id", cs.ID), zap.Error(err))
		report = fallbackReport(cs)
	}
	normalizeReport(report)
	cs.Report = report
	return report
}

func fallbackReport(cs *domain.ClinicalSession) *domain.CompletionReport {
	c, i := len(cs.CorrectDecisions), len(cs.IncorrectDecisions)
	score := float64(c) / float64(max(c+i, 1))
	return &domain.CompletionReport{
		PerformanceSummary:     fmt.Sprintf("You made %d correct decisions.", c),
		CorrectDecisions:       append([]string(nil), cs.CorrectDecisions...),
		MissedPoints:           append([]string(nil), cs.IncorrectDecisions...),
		ClinicalReasoningScore: score,
		FinalDiagnosisCorrect:  score > 0.7,
		LearningPoints:         []string{"Review the case", "Study related anatomy", "Practice clinical reasoning"},
		RecommendedTopics:      []string{"cranial nerves", "stroke syndromes", "spinal cord injury"},
	}
}

func normalizeReport(r *domain.CompletionReport) {
	for _, l := range []*[]string{&r.CorrectDecisions, &r.MissedPoints, &r.LearningPoints, &r.RecommendedTopics} {
		if *l == nil {
			*l = []string{}
		}
	}
}
