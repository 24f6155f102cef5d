package http

import (
	"strings"

	"chessgame/internal/core"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator validates bearer tokens
type TokenValidator func(token string) (userID string, claims map[string]any, err error)

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "missing authorization token",
				Code:  core.ErrUnauthorized,
			})
		}

		userID, claims, err := validateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "invalid or expired token",
				Code:  core.ErrUnauthorized,
			})
		}

		c.Locals("userID", userID)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// OptionalAuth validates a token if present but allows anonymous access.
// A bad token is treated as anonymous.
func OptionalAuth(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Next()
		}

		if userID, claims, err := validateToken(token); err == nil {
			c.Locals("userID", userID)
			c.Locals("claims", claims)
		}
		return c.Next()
	}
}

func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
