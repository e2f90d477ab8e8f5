package handler

import (
	"neurabuddy/internal/dto"
	"neurabuddy/internal/middleware"
	"neurabuddy/internal/service"
	"neurabuddy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service      service.QuizService
	validator    *validation.Validator
	maxQuestions int
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService, maxQuestions int) *QuizHandler {
	return &QuizHandler{
		service:      service,
		validator:    validation.NewValidator(),
		maxQuestions: maxQuestions,
	}
}

// StartQuiz godoc
// @Summary Start a quiz
// @Description Generates a quiz from the knowledge base; never fails for lack of material
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.QuizStartRequest true "Quiz options"
// @Success 200 {object} dto.QuizStartResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /quiz/start [post]
func (h *QuizHandler) StartQuiz(c *fiber.Ctx) error {
	var req dto.QuizStartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateQuizStartRequest(req, h.maxQuestions); len(errs) > 0 {
		return errs
	}
	difficulty, system, err := levels(req.DifficultyLevel, req.SystemFilter)
	if err != nil {
		return err
	}

	quiz, err := h.service.Create(c.UserContext(), service.CreateQuizParams{
		UserID:     req.UserID,
		Topic:      req.Topic,
		Difficulty: difficulty,
		System:     system,
		Count:      req.NumQuestions,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizStartResponse(quiz))
}

// SubmitAnswer godoc
// @Summary Submit a quiz answer
// @Description Judges one answer and returns the running score
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.QuizAnswerRequest true "Answer"
// @Success 200 {object} dto.QuizAnswerResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz/answer [post]
func (h *QuizHandler) SubmitAnswer(c *fiber.Ctx) error {
	var req dto.QuizAnswerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateQuizAnswerRequest(req); len(errs) > 0 {
		return errs
	}

	res, err := h.service.SubmitAnswer(c.UserContext(), req.QuizID, req.QuestionID, req.Answer, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto.QuizAnswerResponse{
		Feedback:          res.Feedback,
		Score:             res.Score,
		TotalQuestions:    res.TotalQuestions,
		QuestionsAnswered: res.QuestionsAnswered,
	})
}

// GetFeedback godoc
// @Summary Get answer feedback
// @Description Returns the stored judgement of an answered question
// @Tags quiz
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param questionId path string true "Question ID"
// @Param user_id query string true "Quiz owner"
// @Success 200 {object} domain.AnswerFeedback
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz/feedback/{quizId}/{questionId} [get]
func (h *QuizHandler) GetFeedback(c *fiber.Ctx) error {
	fb, err := h.service.Feedback(c.UserContext(), c.Params("quizId"), c.Params("questionId"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fb)
}

// GetProgress godoc
// @Summary Get learner progress
// @Description Aggregates the learner's quizzes by topic
// @Tags quiz
// @Produce json
// @Param user_id query string true "Learner"
// @Success 200 {object} dto.ProgressResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /user/progress [get]
func (h *QuizHandler) GetProgress(c *fiber.Ctx) error {
	progress, err := h.service.Progress(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.ProgressResponse{Progress: *progress})
}
