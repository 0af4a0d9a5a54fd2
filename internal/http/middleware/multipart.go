package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrNotMultipart is the body RequireMultipart answers with.
const ErrNotMultipart = "request body must be multipart/form-data"

// RequireMultipart rejects requests whose body is not multipart/form-data.
// Upload failures are all reported as 422 with a plain-text reason, so this
// answers the same way instead of going through the ErrorHandler.
func RequireMultipart() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
		if !strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
			return c.Status(fiber.StatusUnprocessableEntity).SendString(ErrNotMultipart)
		}
		return c.Next()
	}
}
