package handler_test

import (
	"context"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/retrieval"
	"neurabuddy/internal/service"
)

// --- Manual Mocks ---

type MockIngestService struct {
	IngestFunc         func(ctx context.Context, p service.IngestParams) (*service.IngestResult, error)
	DeleteDocumentFunc func(ctx context.Context, documentID string) error
}

func (m *MockIngestService) Ingest(ctx context.Context, p service.IngestParams) (*service.IngestResult, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, p)
	}
	panic("MockIngestService.IngestFunc not implemented")
}

func (m *MockIngestService) DeleteDocument(ctx context.Context, documentID string) error {
	if m.DeleteDocumentFunc != nil {
		return m.DeleteDocumentFunc(ctx, documentID)
	}
	panic("MockIngestService.DeleteDocumentFunc not implemented")
}

func (m *MockIngestService) Stats(context.Context) (domain.IndexStats, error) {
	panic("MockIngestService.Stats not implemented")
}

type MockQueryService struct {
	AnswerFunc func(ctx context.Context, q retrieval.Query) (*retrieval.Answer, error)
}

func (m *MockQueryService) Answer(ctx context.Context, q retrieval.Query) (*retrieval.Answer, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, q)
	}
	panic("MockQueryService.AnswerFunc not implemented")
}

type MockTutorService struct {
	TeachFunc func(ctx context.Context, p service.TeachParams) (*domain.TeachingTurn, error)
}

func (m *MockTutorService) Teach(ctx context.Context, p service.TeachParams) (*domain.TeachingTurn, error) {
	if m.TeachFunc != nil {
		return m.TeachFunc(ctx, p)
	}
	panic("MockTutorService.TeachFunc not implemented")
}

type MockQuizService struct {
	CreateFunc       func(ctx context.Context, p service.CreateQuizParams) (*domain.Quiz, error)
	SubmitAnswerFunc func(ctx context.Context, quizID, questionID, answer, userID string) (*service.SubmitResult, error)
	FeedbackFunc     func(ctx context.Context, quizID, questionID, userID string) (*domain.AnswerFeedback, error)
	ProgressFunc     func(ctx context.Context, userID string) (*domain.UserProgress, error)
}

func (m *MockQuizService) Create(ctx context.Context, p service.CreateQuizParams) (*domain.Quiz, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	panic("MockQuizService.CreateFunc not implemented")
}

func (m *MockQuizService) SubmitAnswer(ctx context.Context, quizID, questionID, answer, userID string) (*service.SubmitResult, error) {
	if m.SubmitAnswerFunc != nil {
		return m.SubmitAnswerFunc(ctx, quizID, questionID, answer, userID)
	}
	panic("MockQuizService.SubmitAnswerFunc not implemented")
}

func (m *MockQuizService) Feedback(ctx context.Context, quizID, questionID, userID string) (*domain.AnswerFeedback, error) {
	if m.FeedbackFunc != nil {
		return m.FeedbackFunc(ctx, quizID, questionID, userID)
	}
	panic("MockQuizService.FeedbackFunc not implemented")
}

func (m *MockQuizService) Progress(ctx context.Context, userID string) (*domain.UserProgress, error) {
	if m.ProgressFunc != nil {
		return m.ProgressFunc(ctx, userID)
	}
	panic("MockQuizService.ProgressFunc not implemented")
}

type MockStudyService struct {
	FlashCardsFunc        func(ctx context.Context, p service.StudyParams) (*service.FlashCardSet, error)
	EvaluateFlashCardFunc func(ctx context.Context, question, correctAnswer, userAnswer string) (*domain.FlashCardEvaluation, error)
	AnalyzeSessionFunc    func(ctx context.Context, r service.SessionResults) (*domain.SessionAnalysis, error)
	ClinicalCaseFunc      func(ctx context.Context, p service.StudyParams) (*domain.ClinicalCase, error)
	StudyNotesFunc        func(ctx context.Context, p service.StudyParams) (*domain.StudyNotes, error)
}

func (m *MockStudyService) FlashCards(ctx context.Context, p service.StudyParams) (*service.FlashCardSet, error) {
	if m.FlashCardsFunc != nil {
		return m.FlashCardsFunc(ctx, p)
	}
	panic("MockStudyService.FlashCardsFunc not implemented")
}

func (m *MockStudyService) EvaluateFlashCard(ctx context.Context, question, correctAnswer, userAnswer string) (*domain.FlashCardEvaluation, error) {
	if m.EvaluateFlashCardFunc != nil {
		return m.EvaluateFlashCardFunc(ctx, question, correctAnswer, userAnswer)
	}
	panic("MockStudyService.EvaluateFlashCardFunc not implemented")
}

func (m *MockStudyService) AnalyzeSession(ctx context.Context, r service.SessionResults) (*domain.SessionAnalysis, error) {
	if m.AnalyzeSessionFunc != nil {
		return m.AnalyzeSessionFunc(ctx, r)
	}
	panic("MockStudyService.AnalyzeSessionFunc not implemented")
}

func (m *MockStudyService) ClinicalCase(ctx context.Context, p service.StudyParams) (*domain.ClinicalCase, error) {
	if m.ClinicalCaseFunc != nil {
		return m.ClinicalCaseFunc(ctx, p)
	}
	panic("MockStudyService.ClinicalCaseFunc not implemented")
}

func (m *MockStudyService) StudyNotes(ctx context.Context, p service.StudyParams) (*domain.StudyNotes, error) {
	if m.StudyNotesFunc != nil {
		return m.StudyNotesFunc(ctx, p)
	}
	panic("MockStudyService.StudyNotesFunc not implemented")
}

type MockClinicalService struct {
	StartFunc    func(ctx context.Context, p service.StartClinicalParams) (*service.ClinicalStart, error)
	InteractFunc func(ctx context.Context, sessionID, message string, requestHint bool) (*domain.ClinicalTurn, error)
}

func (m *MockClinicalService) Start(ctx context.Context, p service.StartClinicalParams) (*service.ClinicalStart, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, p)
	}
	panic("MockClinicalService.StartFunc not implemented")
}

func (m *MockClinicalService) Interact(ctx context.Context, sessionID, message string, requestHint bool) (*domain.ClinicalTurn, error) {
	if m.InteractFunc != nil {
		return m.InteractFunc(ctx, sessionID, message, requestHint)
	}
	panic("MockClinicalService.InteractFunc not implemented")
}

type MockHealthService struct {
	Status service.HealthStatus
}

func (m *MockHealthService) Check(context.Context) service.HealthStatus {
	return m.Status
}
