package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/dto"
	"neurabuddy/internal/handler"
	"neurabuddy/internal/middleware"
	"neurabuddy/internal/retrieval"
	"neurabuddy/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	quizID     = "01HZY8J3V5R7X9B2C4D6F8G0HJ"
	questionID = "01HZY8J3V5R7X9B2C4D6F8G0HK"
	sessionID  = "01HZY8J3V5R7X9B2C4D6F8G0HM"
)

type testServices struct {
	ingest   *MockIngestService
	query    *MockQueryService
	tutor    *MockTutorService
	quiz     *MockQuizService
	study    *MockStudyService
	clinical *MockClinicalService
	health   *MockHealthService
}

func setupApp() (*fiber.App, *testServices) {
	s := &testServices{
		ingest:   &MockIngestService{},
		query:    &MockQueryService{},
		tutor:    &MockTutorService{},
		quiz:     &MockQuizService{},
		study:    &MockStudyService{},
		clinical: &MockClinicalService{},
		health:   &MockHealthService{},
	}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app.Group("/api"), handler.Handlers{
		Ingest:   handler.NewIngestHandler(s.ingest),
		Query:    handler.NewQueryHandler(s.query, s.tutor),
		Quiz:     handler.NewQuizHandler(s.quiz, 20),
		Study:    handler.NewStudyHandler(s.study),
		Clinical: handler.NewClinicalHandler(s.clinical),
		Health:   handler.NewHealthHandler(s.health),
	})
	return app, s
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestQueryHandler_Query(t *testing.T) {
	app, s := setupApp()
	s.query.AnswerFunc = func(_ context.Context, q retrieval.Query) (*retrieval.Answer, error) {
		assert.Equal(t, "What does the hippocampus do?", q.Text)
		assert.Equal(t, domain.DifficultyMed, q.Difficulty)
		assert.Equal(t, domain.SystemLimbic, q.System)
		assert.True(t, q.ClinicalOnly)
		return &retrieval.Answer{
			Answer:     "It consolidates memory.",
			Sources:    []retrieval.Source{{ChunkID: "c1", StructureName: "Hippocampus", Score: 0.91}},
			Confidence: 0.91,
			Intent:     domain.IntentFactualExplanation,
			Grounded:   true,
		}, nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/query", dto.QueryRequest{
		Query: "What does the hippocampus do?", DifficultyLevel: "intermediate", SystemFilter: "limbic", ClinicalOnly: true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.QueryResponse](t, resp)
	assert.Equal(t, "It consolidates memory.", body.Answer)
	assert.Equal(t, "factual_explanation", body.Intent)
	require.Len(t, body.Sources, 1)
	assert.Equal(t, "Hippocampus", body.Sources[0].StructureName)
}

func TestQueryHandler_QueryValidation(t *testing.T) {
	app, _ := setupApp()

	resp := doJSON(t, app, http.MethodPost, "/api/query", dto.QueryRequest{Query: " ", SystemFilter: "digestive"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[middleware.ValidationErrorResponse](t, resp)
	assert.Len(t, body.Errors, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestQueryHandler_QueryUpstreamFailure(t *testing.T) {
	app, s := setupApp()
	s.query.AnswerFunc = func(context.Context, retrieval.Query) (*retrieval.Answer, error) {
		return nil, domain.NewUpstreamError("answer generation failed", nil)
	}

	resp := doJSON(t, app, http.MethodPost, "/api/query", dto.QueryRequest{Query: "pons"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "UPSTREAM_FAILURE", decode[middleware.ErrorResponse](t, resp).Code)
}

func TestQueryHandler_Teach(t *testing.T) {
	app, s := setupApp()
	s.tutor.TeachFunc = func(_ context.Context, p service.TeachParams) (*domain.TeachingTurn, error) {
		assert.Equal(t, "cranial nerves", p.Topic)
		assert.Equal(t, []string{"twelve pairs"}, p.PreviousResponses)
		assert.Equal(t, domain.Difficulty(""), p.Difficulty)
		return &domain.TeachingTurn{Question: "Which exit the brainstem?", NextStep: "Trace CN III", Stage: domain.StageExploration}, nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/teach", dto.TeachRequest{
		Topic: "cranial nerves", UserID: "student-1", PreviousResponses: []string{"twelve pairs"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	turn := decode[domain.TeachingTurn](t, resp)
	assert.Equal(t, "Which exit the brainstem?", turn.Question)
	assert.Equal(t, domain.StageExploration, turn.Stage)

	resp = doJSON(t, app, http.MethodPost, "/api/teach", dto.TeachRequest{Topic: "pons"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuizHandler_StartQuiz(t *testing.T) {
	app, s := setupApp()
	s.quiz.CreateFunc = func(_ context.Context, p service.CreateQuizParams) (*domain.Quiz, error) {
		assert.Equal(t, "student-1", p.UserID)
		assert.Equal(t, 3, p.Count)
		assert.Equal(t, domain.SystemBrainstem, p.System)
		return domain.NewQuiz(quizID, p.UserID, "brainstem", domain.DifficultyUndergrad, []*domain.Question{{
			ID: questionID, Text: "Which nerve exits at the pontomedullary junction?", Type: domain.QuestionMCQ,
			Options: []string{"A) CN VI", "B) CN II"}, CorrectAnswer: "A) CN VI", Explanation: "Abducens.",
			Difficulty: domain.DifficultyUndergrad,
		}}, time.Now()), nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/quiz/start", dto.QuizStartRequest{UserID: "student-1", NumQuestions: 3, SystemFilter: "brainstem"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, quizID, raw["quiz_id"])
	questions := raw["questions"].([]any)
	require.Len(t, questions, 1)
	q := questions[0].(map[string]any)
	assert.Equal(t, questionID, q["question_id"])
	assert.NotContains(t, q, "correct_answer")
	assert.NotContains(t, q, "explanation")

	resp = doJSON(t, app, http.MethodPost, "/api/quiz/start", dto.QuizStartRequest{UserID: "student-1", NumQuestions: 21})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuizHandler_SubmitAnswer(t *testing.T) {
	app, s := setupApp()
	s.quiz.SubmitAnswerFunc = func(_ context.Context, qid, questID, answer, userID string) (*service.SubmitResult, error) {
		switch userID {
		case "intruder":
			return nil, domain.NewPermissionDeniedError("quiz belongs to another user")
		case "ghost":
			return nil, domain.NewNotFoundError("quiz not found")
		}
		return &service.SubmitResult{
			Feedback:          domain.AnswerFeedback{IsCorrect: true, Feedback: "Correct!", CorrectAnswer: "A) CN VI"},
			Score:             0.2,
			TotalQuestions:    5,
			QuestionsAnswered: 1,
		}, nil
	}
	req := dto.QuizAnswerRequest{QuizID: quizID, QuestionID: questionID, Answer: "A) CN VI", UserID: "student-1"}

	resp := doJSON(t, app, http.MethodPost, "/api/quiz/answer", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.QuizAnswerResponse](t, resp)
	assert.True(t, body.Feedback.IsCorrect)
	assert.Equal(t, 0.2, body.Score)
	assert.Equal(t, 5, body.TotalQuestions)

	req.UserID = "intruder"
	assert.Equal(t, http.StatusForbidden, doJSON(t, app, http.MethodPost, "/api/quiz/answer", req).StatusCode)
	req.UserID = "ghost"
	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodPost, "/api/quiz/answer", req).StatusCode)
	req.QuizID = "42"
	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/quiz/answer", req).StatusCode)
}

func TestQuizHandler_GetFeedback(t *testing.T) {
	app, s := setupApp()
	s.quiz.FeedbackFunc = func(_ context.Context, qid, questID, userID string) (*domain.AnswerFeedback, error) {
		assert.Equal(t, quizID, qid)
		assert.Equal(t, questionID, questID)
		assert.Equal(t, "student-1", userID)
		return &domain.AnswerFeedback{Feedback: "Correct!"}, nil
	}

	resp := doJSON(t, app, http.MethodGet, "/api/quiz/feedback/"+quizID+"/"+questionID+"?user_id=student-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Correct!", decode[domain.AnswerFeedback](t, resp).Feedback)

	resp = doJSON(t, app, http.MethodGet, "/api/quiz/feedback/"+quizID+"/"+questionID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, app, http.MethodGet, "/api/quiz/feedback/abc/"+questionID+"?user_id=student-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuizHandler_GetProgress(t *testing.T) {
	app, s := setupApp()
	s.quiz.ProgressFunc = func(_ context.Context, userID string) (*domain.UserProgress, error) {
		return &domain.UserProgress{
			UserID:        userID,
			TopicsStudied: []string{"brainstem"},
			QuizScores:    map[string]float64{"brainstem": 0.8},
			QuizzesTaken:  1,
		}, nil
	}

	resp := doJSON(t, app, http.MethodGet, "/api/user/progress?user_id=student-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.ProgressResponse](t, resp)
	assert.Equal(t, "student-1", body.Progress.UserID)
	assert.Equal(t, 0.8, body.Progress.QuizScores["brainstem"])
}

func TestIngestHandler_Ingest(t *testing.T) {
	app, s := setupApp()
	s.ingest.IngestFunc = func(_ context.Context, p service.IngestParams) (*service.IngestResult, error) {
		assert.Equal(t, "The pons relays signals.", p.Content)
		assert.Equal(t, "lecture notes", p.Source)
		return &service.IngestResult{DocumentID: "doc-1", ChunksCreated: 1, ChunkIDs: []string{"c1"}}, nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/ingest", dto.IngestRequest{Content: "The pons relays signals.", Source: "lecture notes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.IngestResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "doc-1", body.DocumentID)
	assert.Equal(t, 1, body.ChunksCreated)

	resp = doJSON(t, app, http.MethodPost, "/api/ingest", dto.IngestRequest{Source: "nothing"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestHandler_IngestFile(t *testing.T) {
	app, s := setupApp()
	s.ingest.IngestFunc = func(_ context.Context, p service.IngestParams) (*service.IngestResult, error) {
		assert.Equal(t, "cerebellum.html", p.Filename)
		assert.Equal(t, "<p>The cerebellum coordinates movement.</p>", string(p.Data))
		assert.Equal(t, "uploaded_file", p.Source)
		return &service.IngestResult{DocumentID: "doc-2", ChunksCreated: 1}, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "cerebellum.html")
	require.NoError(t, err)
	_, err = part.Write([]byte("<p>The cerebellum coordinates movement.</p>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/file", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "doc-2", decode[dto.IngestResponse](t, resp).DocumentID)

	missing := httptest.NewRequest(http.MethodPost, "/api/ingest/file", nil)
	resp, err = app.Test(missing, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestHandler_DeleteDocument(t *testing.T) {
	app, s := setupApp()
	s.ingest.DeleteDocumentFunc = func(_ context.Context, id string) error {
		if id == "doc-1" {
			return nil
		}
		return domain.NewNotFoundError("document not found").WithContext("document_id", id)
	}

	resp := doJSON(t, app, http.MethodDelete, "/api/documents/doc-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/documents/doc-9", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "doc-9", decode[middleware.ErrorResponse](t, resp).Details["document_id"])
}

func TestStudyHandler_FlashCards(t *testing.T) {
	app, s := setupApp()
	s.study.FlashCardsFunc = func(_ context.Context, p service.StudyParams) (*service.FlashCardSet, error) {
		assert.Equal(t, 2, p.Count)
		assert.Equal(t, domain.DifficultyAdvanced, p.Difficulty)
		return &service.FlashCardSet{Topic: "cranial nerves", FlashCards: []domain.FlashCard{{Front: "CN I?", Back: "Olfactory"}}}, nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/study/flashcards", dto.FlashCardRequest{Topic: "cranial nerves", NumCards: 2, DifficultyLevel: "advanced"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	set := decode[service.FlashCardSet](t, resp)
	assert.Equal(t, "Olfactory", set.FlashCards[0].Back)

	resp = doJSON(t, app, http.MethodPost, "/api/study/flashcards", dto.FlashCardRequest{NumCards: 500})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStudyHandler_EvaluateAndAnalyze(t *testing.T) {
	app, s := setupApp()
	s.study.EvaluateFlashCardFunc = func(_ context.Context, q, correct, answer string) (*domain.FlashCardEvaluation, error) {
		return &domain.FlashCardEvaluation{Score: 0.5, IsPartial: true, Feedback: "Good start"}, nil
	}
	s.study.AnalyzeSessionFunc = func(_ context.Context, r service.SessionResults) (*domain.SessionAnalysis, error) {
		assert.Len(t, r.Results, 1)
		return &domain.SessionAnalysis{PerformanceSummary: "Solid.", NextDifficulty: domain.DifficultyMed}, nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/study/flashcards/evaluate", dto.FlashCardAnswerRequest{
		Question: "CNS?", CorrectAnswer: "brain and spinal cord", UserAnswer: "brain",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[domain.FlashCardEvaluation](t, resp).IsPartial)

	resp = doJSON(t, app, http.MethodPost, "/api/study/flashcards/analyze", dto.FlashCardSessionCompleteRequest{
		Topic: "cns", TotalScore: 0.5, MaxScore: 1,
		CardResults: []domain.FlashCardResult{{Question: "CNS?", CorrectAnswer: "brain and spinal cord", UserAnswer: "brain", Score: 0.5}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DifficultyMed, decode[domain.SessionAnalysis](t, resp).NextDifficulty)
}

func TestStudyHandler_NotesAndCase(t *testing.T) {
	app, s := setupApp()
	s.study.StudyNotesFunc = func(_ context.Context, p service.StudyParams) (*domain.StudyNotes, error) {
		assert.True(t, p.IncludeSummary, "summary defaults on")
		return &domain.StudyNotes{Notes: "# Cerebellum", Topic: p.Topic, Difficulty: domain.DifficultyUndergrad}, nil
	}
	s.study.ClinicalCaseFunc = func(_ context.Context, p service.StudyParams) (*domain.ClinicalCase, error) {
		assert.Equal(t, domain.Difficulty(""), p.Difficulty)
		return &domain.ClinicalCase{Case: "A 64-year-old...", Topic: "stroke", Difficulty: domain.DifficultyMed}, nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/study/notes", dto.StudyRequest{Topic: "cerebellum"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Cerebellum", decode[domain.StudyNotes](t, resp).Notes)

	resp = doJSON(t, app, http.MethodPost, "/api/study/notes", dto.StudyRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/study/clinical-case", dto.StudyRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "A 64-year-old...", decode[domain.ClinicalCase](t, resp).Case)
}

func TestClinicalHandler(t *testing.T) {
	app, s := setupApp()
	s.clinical.StartFunc = func(_ context.Context, p service.StartClinicalParams) (*service.ClinicalStart, error) {
		return &service.ClinicalStart{SessionID: sessionID, PatientName: "Alex Chen", Stage: domain.StageInitial, AvailableHints: 3}, nil
	}
	s.clinical.InteractFunc = func(_ context.Context, id, message string, hint bool) (*domain.ClinicalTurn, error) {
		if id != sessionID {
			return nil, domain.NewNotFoundError("session not found")
		}
		assert.True(t, hint)
		return &domain.ClinicalTurn{AIResponse: "Here's a hint to guide you:", HintGiven: "Think about the pupils.", Stage: domain.StageInitial, AvailableHints: 2}, nil
	}

	resp := doJSON(t, app, http.MethodPost, "/api/study/clinical/start", dto.ClinicalStartRequest{Topic: "stroke"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	start := decode[service.ClinicalStart](t, resp)
	assert.Equal(t, sessionID, start.SessionID)

	resp = doJSON(t, app, http.MethodPost, "/api/study/clinical/interact", dto.ClinicalInteractRequest{SessionID: sessionID, RequestHint: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[domain.ClinicalTurn](t, resp).AvailableHints)

	resp = doJSON(t, app, http.MethodPost, "/api/study/clinical/interact", dto.ClinicalInteractRequest{SessionID: quizID, RequestHint: true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/study/clinical/interact", dto.ClinicalInteractRequest{SessionID: sessionID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/study/clinical/start", dto.ClinicalStartRequest{DifficultyLevel: "expert"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	app, s := setupApp()
	s.health.Status = service.HealthStatus{Status: service.StatusHealthy, Redis: "ok", Index: &domain.IndexStats{TotalChunks: 12}}

	resp := doJSON(t, app, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12, decode[service.HealthStatus](t, resp).Index.TotalChunks)

	s.health.Status = service.HealthStatus{Status: service.StatusDegraded, Redis: "unavailable"}
	resp = doJSON(t, app, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
