package handler

import (
	"neurabuddy/internal/dto"
	"neurabuddy/internal/service"
	"neurabuddy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ClinicalHandler drives interactive clinical simulations.
type ClinicalHandler struct {
	service   service.ClinicalService
	validator *validation.Validator
}

func NewClinicalHandler(service service.ClinicalService) *ClinicalHandler {
	return &ClinicalHandler{service: service, validator: validation.NewValidator()}
}

// StartSession godoc
// @Summary Start a clinical simulation
// @Tags clinical
// @Accept json
// @Produce json
// @Param request body dto.ClinicalStartRequest true "Case options"
// @Success 200 {object} service.ClinicalStart
// @Failure 400 {object} middleware.ErrorResponse
// @Router /study/clinical/start [post]
func (h *ClinicalHandler) StartSession(c *fiber.Ctx) error {
	var req dto.ClinicalStartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	difficulty, system, err := levels(req.DifficultyLevel, req.SystemFilter)
	if err != nil {
		return err
	}

	start, err := h.service.Start(c.UserContext(), service.StartClinicalParams{
		Topic:      req.Topic,
		Difficulty: difficulty,
		System:     system,
	})
	if err != nil {
		return err
	}
	return c.JSON(start)
}

// Interact godoc
// @Summary Send a message in a clinical simulation
// @Description Asks the clinical team a question, requests a hint or answers a diagnostic question
// @Tags clinical
// @Accept json
// @Produce json
// @Param request body dto.ClinicalInteractRequest true "Learner turn"
// @Success 200 {object} domain.ClinicalTurn
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /study/clinical/interact [post]
func (h *ClinicalHandler) Interact(c *fiber.Ctx) error {
	var req dto.ClinicalInteractRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateClinicalInteractRequest(req); len(errs) > 0 {
		return errs
	}

	turn, err := h.service.Interact(c.UserContext(), req.SessionID, req.UserMessage, req.RequestHint)
	if err != nil {
		return err
	}
	return c.JSON(turn)
}
