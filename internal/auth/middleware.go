package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

const identityLocalsKey = "auth_identity"

// Authenticator resolves a bearer token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// AuthMiddleware validates bearer tokens and loads identities.
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Handle enforces authentication for protected routes. The identity is
// stored both in fiber locals and in the request's user context, which is
// what services read.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return err
	}

	identity, err := m.authenticator.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(identityLocalsKey, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
	return c.Next()
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// IdentityFromFiber retrieves the authenticated identity.
func IdentityFromFiber(c *fiber.Ctx) (*Identity, bool) {
	identity, ok := c.Locals(identityLocalsKey).(*Identity)
	return identity, ok && identity != nil
}
