package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fileupload/internal/service"
)

const (
	defaultLinkExpiry = 15 * time.Minute
	maxLinkExpiry     = 7 * 24 * time.Hour
)

// RegisterRoutes attaches the operational and archive routes to the provided Fiber app.
// The upload routes themselves are bound by the upload plugin. db and archive may be nil
// when archiving is disabled; the archive routes are then left out.
func RegisterRoutes(app *fiber.App, db *sql.DB, archive service.ArchiveService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	if archive == nil {
		return
	}
	app.Get("/archive", ListArchived(archive))
	app.Get("/archive/:id", GetArchived(archive))
	app.Get("/archive/:id/content", ArchivedContent(archive))
	app.Get("/archive/:id/link", ArchivedLink(archive))
	app.Delete("/archive/:id", DeleteArchived(archive))
}

// HealthCheck godoc
// @Summary      Readiness probe
// @Description  Pings the catalog database when archiving is enabled.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  errorPayload
// @Router       /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary  Liveness probe
// @Tags     health
// @Success  200
// @Router   /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListArchived godoc
// @Summary  List archived uploads
// @Tags     archive
// @Produce  json
// @Param    limit   query     int  false  "page size"  default(10)
// @Param    offset  query     int  false  "offset"     default(0)
// @Success  200     {object}  service.UploadListResult
// @Failure  400     {object}  errorPayload
// @Failure  500     {object}  errorPayload
// @Router   /archive [get]
func ListArchived(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetArchived godoc
// @Summary  Get an archived upload
// @Tags     archive
// @Produce  json
// @Param    id   path      string  true  "upload id (uuid)"
// @Success  200  {object}  model.Upload
// @Failure  400  {object}  errorPayload
// @Failure  404  {object}  errorPayload
// @Router   /archive/{id} [get]
func GetArchived(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(u)
	}
}

// ArchivedContent godoc
// @Summary  Download an archived upload from object storage
// @Tags     archive
// @Produce  octet-stream
// @Param    id   path  string  true  "upload id (uuid)"
// @Success  200  {file}    file
// @Failure  400  {object}  errorPayload
// @Failure  404  {object}  errorPayload
// @Router   /archive/{id}/content [get]
func ArchivedContent(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, u, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		c.Attachment(u.OriginalName)
		if u.ContentType != "" {
			c.Set(fiber.HeaderContentType, u.ContentType)
		}
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc, int(u.Size))
	}
}

// ArchivedLink godoc
// @Summary  Presigned download link for an archived upload
// @Tags     archive
// @Produce  json
// @Param    id       path      string  true   "upload id (uuid)"
// @Param    expires  query     int     false  "link lifetime in seconds"  default(900)
// @Success  200      {object}  map[string]string
// @Failure  400      {object}  errorPayload
// @Failure  404      {object}  errorPayload
// @Router   /archive/{id}/link [get]
func ArchivedLink(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		expiry := defaultLinkExpiry
		if raw := c.Query("expires"); raw != "" {
			secs, err := strconv.Atoi(raw)
			if err != nil || secs <= 0 || time.Duration(secs)*time.Second > maxLinkExpiry {
				return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRES", "invalid expires")
			}
			expiry = time.Duration(secs) * time.Second
		}

		link, err := svc.Link(c.UserContext(), id, expiry)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"url": link, "expires_in": int(expiry.Seconds())})
	}
}

// DeleteArchived godoc
// @Summary  Remove an upload from the archive
// @Tags     archive
// @Param    id  path  string  true  "upload id (uuid)"
// @Success  204
// @Failure  400  {object}  errorPayload
// @Failure  404  {object}  errorPayload
// @Router   /archive/{id} [delete]
func DeleteArchived(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func parseID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func serviceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "upload not found")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
