package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

// AttachUser puts the logged-in user, if any, in Locals("user").
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(applog.LocalStart, time.Now())
		if sid := c.Cookies(sidCookie); sid != "" {
			c.Locals(applog.LocalSession, sid)
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals(applog.LocalUserID, u.ID)
			}
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "anonymous"})
			return fail(c, fiber.StatusUnauthorized, "login required")
		}
		if u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.ID})
			return fail(c, fiber.StatusForbidden, "access denied")
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return fail(c, fiber.StatusUnauthorized, "login required")
		}
		return c.Next()
	}
}
