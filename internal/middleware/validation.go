package middleware

import (
	"neurabuddy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDKey holds the validated user_id query parameter.
	UserIDKey = "validated_user_id"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// RequireUserID validates the user_id query parameter and stores it under
// UserIDKey.
func (vm *ValidationMiddleware) RequireUserID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if errs := vm.validator.ValidateUserID(userID); len(errs) > 0 {
			return errs
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// RequireULIDParams rejects requests whose named path parameters are not
// well-formed ULIDs.
func (vm *ValidationMiddleware) RequireULIDParams(params ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, p := range params {
			if errs := vm.validator.ValidateULID(p, c.Params(p)); len(errs) > 0 {
				return errs
			}
		}
		return c.Next()
	}
}

// UserID returns the value stored by RequireUserID.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
