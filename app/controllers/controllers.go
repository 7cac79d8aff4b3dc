package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wizerunkowo/wizerunkowo/internal/pkg/usercontext"
)

// requireUserID resolves the authenticated user, reporting false for
// anonymous requests.
func requireUserID(c *fiber.Ctx) (uint, bool) {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return 0, false
	}
	return user.UserID, true
}
