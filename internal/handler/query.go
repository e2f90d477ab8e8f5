package handler

import (
	"neurabuddy/internal/dto"
	"neurabuddy/internal/retrieval"
	"neurabuddy/internal/service"
	"neurabuddy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QueryHandler serves question answering and Socratic tutoring.
type QueryHandler struct {
	query     service.QueryService
	tutor     service.TutorService
	validator *validation.Validator
}

func NewQueryHandler(query service.QueryService, tutor service.TutorService) *QueryHandler {
	return &QueryHandler{query: query, tutor: tutor, validator: validation.NewValidator()}
}

// Query godoc
// @Summary Ask a question
// @Description Answers from the indexed material with citations, or from general knowledge with a disclosure
// @Tags learning
// @Accept json
// @Produce json
// @Param request body dto.QueryRequest true "Question"
// @Success 200 {object} dto.QueryResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /query [post]
func (h *QueryHandler) Query(c *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateQueryRequest(req); len(errs) > 0 {
		return errs
	}
	difficulty, system, err := levels(req.DifficultyLevel, req.SystemFilter)
	if err != nil {
		return err
	}

	answer, err := h.query.Answer(c.UserContext(), retrieval.Query{
		Text:         req.Query,
		UserID:       req.UserID,
		Difficulty:   difficulty,
		System:       system,
		ClinicalOnly: req.ClinicalOnly,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.QueryResponse{
		Answer:     answer.Answer,
		Sources:    answer.Sources,
		Confidence: answer.Confidence,
		Intent:     string(answer.Intent),
	})
}

// Teach godoc
// @Summary Socratic tutoring turn
// @Description Returns the next guiding question for a topic
// @Tags learning
// @Accept json
// @Produce json
// @Param request body dto.TeachRequest true "Dialogue state"
// @Success 200 {object} domain.TeachingTurn
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /teach [post]
func (h *QueryHandler) Teach(c *fiber.Ctx) error {
	var req dto.TeachRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateTeachRequest(req); len(errs) > 0 {
		return errs
	}
	difficulty, _, err := levels(req.DifficultyLevel, "")
	if err != nil {
		return err
	}

	turn, err := h.tutor.Teach(c.UserContext(), service.TeachParams{
		Topic:             req.Topic,
		UserID:            req.UserID,
		Difficulty:        difficulty,
		PreviousResponses: req.PreviousResponses,
	})
	if err != nil {
		return err
	}
	return c.JSON(turn)
}
