package middleware

import (
	"strings"

	"litterbugs/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// IdentityMiddleware resolves the caller. A request without an Authorization
// header proceeds as a guest; a malformed or invalid bearer token is rejected.
func IdentityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

// RequireIdentity rejects guests.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CallerID(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}
		return c.Next()
	}
}

// CallerID returns the authenticated user id, or nil for a guest.
func CallerID(c *fiber.Ctx) *string {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}
