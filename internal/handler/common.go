package handler

import (
	"strings"

	"neurabuddy/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// parseBody decodes the JSON request body into out.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewError(domain.CodeInvalidInput, "invalid request body", err)
	}
	return nil
}

// levels parses optional difficulty and system names. Empty values stay
// empty so services apply their own defaults and filters stay open.
func levels(difficulty, system string) (domain.Difficulty, domain.System, error) {
	var d domain.Difficulty
	if strings.TrimSpace(difficulty) != "" {
		parsed, err := domain.ParseDifficulty(difficulty)
		if err != nil {
			return "", "", err
		}
		d = parsed
	}
	s, err := domain.ParseSystem(system)
	if err != nil {
		return "", "", err
	}
	return d, s, nil
}
