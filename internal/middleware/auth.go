// Package middleware provides authentication, logging, tracing, and metrics
// middleware for the application.
package middleware

import (
	"strings"

	"forum/internal/token"

	"github.com/gofiber/fiber/v2"
)

var codec *token.Codec

// InitMiddleware initializes authentication middleware with the token codec.
func InitMiddleware(c *token.Codec) {
	codec = c
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Authorization header required",
		})
	}

	userID, username, err := codec.VerifySession(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid or expired token",
		})
	}

	c.Locals("userID", userID)
	c.Locals("username", username)
	return c.Next()
}

// OptionalAuth resolves the user when a valid token is present but never
// rejects the request. Anonymous reads use it to derive per-user view flags.
func OptionalAuth(c *fiber.Ctx) error {
	if tokenString, ok := bearerToken(c); ok {
		if userID, username, err := codec.VerifySession(tokenString); err == nil {
			c.Locals("userID", userID)
			c.Locals("username", username)
		}
	}
	return c.Next()
}

// CurrentUserID returns the authenticated user id from locals, or "" when
// the request is anonymous.
func CurrentUserID(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok {
		return uid
	}
	return ""
}
