package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/residence-ops/residence-tickets/internal/api/dto"
	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/service"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// AuthHandler exposes login and logout.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.User),
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
