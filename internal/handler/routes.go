package handler

import (
	"neurabuddy/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler served under /api.
type Handlers struct {
	Ingest   *IngestHandler
	Query    *QueryHandler
	Quiz     *QuizHandler
	Study    *StudyHandler
	Clinical *ClinicalHandler
	Health   *HealthHandler
}

// RegisterRoutes mounts the API on router.
func RegisterRoutes(router fiber.Router, h Handlers) {
	vm := middleware.NewValidationMiddleware()

	router.Post("/ingest", h.Ingest.Ingest)
	router.Post("/ingest/file", h.Ingest.IngestFile)
	router.Delete("/documents/:id", h.Ingest.DeleteDocument)

	router.Post("/query", h.Query.Query)
	router.Post("/teach", h.Query.Teach)

	router.Post("/quiz/start", h.Quiz.StartQuiz)
	router.Post("/quiz/answer", h.Quiz.SubmitAnswer)
	router.Get("/quiz/feedback/:quizId/:questionId",
		vm.RequireULIDParams("quizId", "questionId"), vm.RequireUserID(), h.Quiz.GetFeedback)
	router.Get("/user/progress", vm.RequireUserID(), h.Quiz.GetProgress)

	study := router.Group("/study")
	study.Post("/flashcards", h.Study.FlashCards)
	study.Post("/flashcards/evaluate", h.Study.EvaluateFlashCard)
	study.Post("/flashcards/analyze", h.Study.AnalyzeSession)
	study.Post("/clinical-case", h.Study.ClinicalCase)
	study.Post("/notes", h.Study.StudyNotes)
	study.Post("/clinical/start", h.Clinical.StartSession)
	study.Post("/clinical/interact", h.Clinical.Interact)

	router.Get("/health", h.Health.Health)
}
