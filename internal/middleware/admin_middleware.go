package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/gofiber/fiber/v2"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminOnly guards a route with a static token sent either in X-Admin-Token
// or as a bearer token. An empty configured token closes the route entirely.
func AdminOnly(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusForbidden,
				Message: "Admin routes are disabled",
			})
		}
		got := c.Get(AdminTokenHeader)
		if got == "" {
			got = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}
