package handler

import (
	"neurabuddy/internal/dto"
	"neurabuddy/internal/service"
	"neurabuddy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// StudyHandler serves the self-study generators.
type StudyHandler struct {
	service   service.StudyService
	validator *validation.Validator
}

func NewStudyHandler(service service.StudyService) *StudyHandler {
	return &StudyHandler{service: service, validator: validation.NewValidator()}
}

// FlashCards godoc
// @Summary Generate flash cards
// @Tags study
// @Accept json
// @Produce json
// @Param request body dto.FlashCardRequest true "Deck options"
// @Success 200 {object} service.FlashCardSet
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /study/flashcards [post]
func (h *StudyHandler) FlashCards(c *fiber.Ctx) error {
	var req dto.FlashCardRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateFlashCardRequest(req); len(errs) > 0 {
		return errs
	}
	difficulty, system, err := levels(req.DifficultyLevel, req.SystemFilter)
	if err != nil {
		return err
	}

	set, err := h.service.FlashCards(c.UserContext(), service.StudyParams{
		Topic:      req.Topic,
		Difficulty: difficulty,
		System:     system,
		Count:      req.NumCards,
	})
	if err != nil {
		return err
	}
	return c.JSON(set)
}

// EvaluateFlashCard godoc
// @Summary Grade a flash-card answer
// @Description Scores recall as 0, 0.5 or 1
// @Tags study
// @Accept json
// @Produce json
// @Param request body dto.FlashCardAnswerRequest true "Attempt"
// @Success 200 {object} domain.FlashCardEvaluation
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /study/flashcards/evaluate [post]
func (h *StudyHandler) EvaluateFlashCard(c *fiber.Ctx) error {
	var req dto.FlashCardAnswerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateFlashCardAnswerRequest(req); len(errs) > 0 {
		return errs
	}

	ev, err := h.service.EvaluateFlashCard(c.UserContext(), req.Question, req.CorrectAnswer, req.UserAnswer)
	if err != nil {
		return err
	}
	return c.JSON(ev)
}

// AnalyzeSession godoc
// @Summary Analyse a flash-card session
// @Tags study
// @Accept json
// @Produce json
// @Param request body dto.FlashCardSessionCompleteRequest true "Session results"
// @Success 200 {object} domain.SessionAnalysis
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /study/flashcards/analyze [post]
func (h *StudyHandler) AnalyzeSession(c *fiber.Ctx) error {
	var req dto.FlashCardSessionCompleteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateSessionCompleteRequest(req); len(errs) > 0 {
		return errs
	}

	analysis, err := h.service.AnalyzeSession(c.UserContext(), service.SessionResults{
		Topic:      req.Topic,
		TotalScore: req.TotalScore,
		MaxScore:   req.MaxScore,
		Results:    req.CardResults,
	})
	if err != nil {
		return err
	}
	return c.JSON(analysis)
}

// ClinicalCase godoc
// @Summary Generate a clinical case
// @Tags study
// @Accept json
// @Produce json
// @Param request body dto.StudyRequest true "Case options"
// @Success 200 {object} domain.ClinicalCase
// @Failure 503 {object} middleware.ErrorResponse
// @Router /study/clinical-case [post]
func (h *StudyHandler) ClinicalCase(c *fiber.Ctx) error {
	p, err := h.studyParams(c, false)
	if err != nil {
		return err
	}
	cc, err := h.service.ClinicalCase(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(cc)
}

// StudyNotes godoc
// @Summary Generate study notes
// @Tags study
// @Accept json
// @Produce json
// @Param request body dto.StudyRequest true "Notes options"
// @Success 200 {object} domain.StudyNotes
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /study/notes [post]
func (h *StudyHandler) StudyNotes(c *fiber.Ctx) error {
	p, err := h.studyParams(c, true)
	if err != nil {
		return err
	}
	notes, err := h.service.StudyNotes(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(notes)
}

func (h *StudyHandler) studyParams(c *fiber.Ctx, topicRequired bool) (service.StudyParams, error) {
	var req dto.StudyRequest
	if err := parseBody(c, &req); err != nil {
		return service.StudyParams{}, err
	}
	if errs := h.validator.ValidateStudyRequest(req, topicRequired); len(errs) > 0 {
		return service.StudyParams{}, errs
	}
	difficulty, system, err := levels(req.DifficultyLevel, req.SystemFilter)
	if err != nil {
		return service.StudyParams{}, err
	}
	return service.StudyParams{
		Topic:          req.Topic,
		Difficulty:     difficulty,
		System:         system,
		IncludeSummary: req.IncludeSummary == nil || *req.IncludeSummary,
	}, nil
}
