package upload

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"

	"fileupload/internal/logging"
)

// BindRoutes mounts the static file server on PublicRoute and the upload
// handler, preceded by the configured middleware, on Route. Calling it twice
// registers the routes twice.
func (p *Plugin) BindRoutes(r fiber.Router) error {
	cfg, err := p.Effective()
	if err != nil {
		return err
	}

	r.Use(cfg.PublicRoute, filesystem.New(filesystem.Config{
		Root: http.Dir(cfg.Directory),
	}))

	handlers := append(slices.Clone(cfg.Middleware), p.Upload)
	r.Post(cfg.Route, handlers...)

	return nil
}

// ErrorHandler wraps next so that a POST to Route rejected by the server's
// body limit gets the same plain-text 422 as any other failed upload.
func (p *Plugin) ErrorHandler(next fiber.ErrorHandler) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) || fe.Code != fiber.StatusRequestEntityTooLarge || c.Method() != fiber.MethodPost {
			return next(c, err)
		}
		cfg, cerr := p.Effective()
		if cerr != nil || c.Path() != cfg.Route {
			return next(c, err)
		}

		p.metrics.rejected()
		logging.Error("upload_rejected", ErrFileTooLarge, logging.Fields{"path": c.Path()})
		return c.Status(fiber.StatusUnprocessableEntity).SendString(ErrFileTooLarge.Error())
	}
}
