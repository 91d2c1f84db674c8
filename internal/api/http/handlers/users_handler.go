package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/residence-ops/residence-tickets/internal/api/dto"
	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/service"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// UsersHandler exposes user lookups.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.GetUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// GetUser GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	return h.respondUser(c, c.Params("id"))
}

// Me GET /me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return h.respondUser(c, identity.UserID)
}

func (h *UsersHandler) respondUser(c *fiber.Ctx, id string) error {
	user, err := h.users.GetUserByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
