// Package middleware provides request-scoped logging, authentication and metrics middleware.
package middleware

import (
	"context"
	"errors"
	"strings"

	"vidnest/internal/auth"
	"vidnest/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals written by the auth middleware.
const (
	LocalUserID   = "userID"
	LocalIdentity = "identity"
)

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	// Browser clients may carry the access token as a cookie.
	return c.Cookies("accessToken")
}

func attachViewer(c *fiber.Ctx, id auth.Identity) {
	c.Locals(LocalUserID, id.UserID)
	c.Locals(LocalIdentity, id)
	ctx := context.WithValue(c.UserContext(), UserIDKey, id.UserID)
	c.SetUserContext(ctx)
}

// AuthRequired rejects requests without a valid, unrevoked access token.
func AuthRequired(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		id, err := tokens.VerifyAccess(c.UserContext(), raw)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, auth.ErrRevokedToken) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		attachViewer(c, id)
		return c.Next()
	}
}

// OptionalAuth resolves the viewer when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := bearerToken(c); raw != "" {
			if id, err := tokens.VerifyAccess(c.UserContext(), raw); err == nil {
				attachViewer(c, id)
			}
		}
		return c.Next()
	}
}

// ViewerID returns the authenticated user id, or 0 for anonymous requests.
func ViewerID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals(LocalUserID).(uint); ok {
		return uid
	}
	return 0
}

// ViewerIdentity returns the verified token identity, if any.
func ViewerIdentity(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(LocalIdentity).(auth.Identity)
	return id, ok
}
