package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"
)

// AuthMiddleware validates JWT tokens and loads the authenticated user ID and role into context.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := utils.ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, claims.UserID)
		c.Locals(roleContextKey, claims.Role)
		return c.Next()
	}
}

// RequireRole rejects requests whose token role is not one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetCurrentRole(c)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetCurrentRole returns the authenticated user's role, or "" when unknown.
func GetCurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(roleContextKey).(string)
	return role
}
