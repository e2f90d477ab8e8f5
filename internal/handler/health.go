package handler

import (
	"neurabuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	service service.HealthService
}

func NewHealthHandler(service service.HealthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Health godoc
// @Summary Health check
// @Description Reports index statistics and Redis reachability
// @Tags health
// @Produce json
// @Success 200 {object} service.HealthStatus
// @Failure 503 {object} service.HealthStatus
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := h.service.Check(c.UserContext())
	if status.Status != service.StatusHealthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}
