package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"fileupload/internal/logging"
)

// Logger is a middleware that writes one access log entry per HTTP request
// through the logging package. Fields:
// - ts (RFC3339Nano, in the zone set with logging.SetLocation)
// - level (error for 5xx responses, info otherwise)
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// An error still has to go through the ErrorHandler to get its final status.
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		level := "info"
		if status >= fiber.StatusInternalServerError {
			level = "error"
		}

		logging.Write(logging.Fields{
			"level":      level,
			"msg":        "http_request",
			"request_id": RequestIDFromCtx(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})

		return err
	}
}
