package auth

import "github.com/gofiber/fiber/v2"

// RequireOperation rejects the request early when the gate denies op.
// Services check the gate again; this lets routes fail before body parsing.
func RequireOperation(gate *Gate, op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := gate.Check(c.UserContext(), op); err != nil {
			return err
		}
		return c.Next()
	}
}
