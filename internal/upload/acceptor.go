package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fileupload/internal/logging"
	"fileupload/internal/model"
)

const dirPerm = 0o755

// ErrOutsideDirectory is returned for a stored path that does not live under the upload directory.
var ErrOutsideDirectory = errors.New("upload: path is outside the upload directory")

// Upload handles a multipart upload of a single file.
//
// @Summary     Upload a file
// @Description Stores the "file" field under the upload directory, optionally in the
// @Description subdirectory of the "fullPath" hint, and returns its public path.
// @Accept      multipart/form-data
// @Produce     plain
// @Param       file     formData file   true  "File to store"
// @Param       fullPath formData string false "Relative path hint"
// @Success     200 {string} string "public path of the stored file"
// @Failure     422 {string} string "upload error"
// @Router      /upload [post]
func (p *Plugin) Upload(c *fiber.Ctx) error {
	ctx, span := p.tracer.Start(c.UserContext(), "upload.accept")
	defer span.End()

	cfg, err := p.Effective()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid configuration")
		logging.Error("upload_config_invalid", err, nil)
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	ensureDir(cfg.Directory)

	rec, err := p.receiver.Receive(c, FileField, p.destination(cfg), p.filename)
	if err != nil {
		return p.reject(c, span, err)
	}

	rel, err := relativePath(cfg.Directory, rec.Path)
	if err != nil {
		return p.reject(c, span, err)
	}
	public := path.Join(cfg.PublicRoute, rel)

	stored := model.StoredFile{
		Name:         filepath.Base(rec.Path),
		OriginalName: rec.OriginalName,
		Path:         rec.Path,
		RelativePath: rel,
		PublicPath:   public,
		Size:         rec.Size,
		ContentType:  rec.ContentType,
		StoredAt:     p.now().UTC(),
	}
	if abs, err := filepath.Abs(rec.Path); err == nil {
		stored.Path = abs
	}

	span.SetAttributes(
		attribute.String("upload.public_path", public),
		attribute.Int64("upload.size", rec.Size),
	)
	p.metrics.stored(rec.Size)
	logging.Info("upload_stored", logging.Fields{
		"path":        stored.Path,
		"public_path": public,
		"size":        rec.Size,
	})
	p.announce(ctx, stored)

	return c.Status(fiber.StatusOK).SendString(public)
}

// reject answers 422 with the error text as body.
func (p *Plugin) reject(c *fiber.Ctx, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.metrics.rejected()
	logging.Error("upload_rejected", err, logging.Fields{"path": c.Path()})
	return c.Status(fiber.StatusUnprocessableEntity).SendString(err.Error())
}

func (p *Plugin) announce(ctx context.Context, f model.StoredFile) {
	if p.emitter == nil {
		return
	}
	if err := p.emitter.Dispatch(ctx, EventStored, f); err != nil {
		logging.Error("upload_stored_hook_failed", err, logging.Fields{"path": f.Path})
	}
}

func (p *Plugin) destination(cfg *Config) DestinationFunc {
	return func(c *fiber.Ctx, _ *multipart.FileHeader) (string, error) {
		return Destination(cfg.Directory, c.FormValue(PathHintField)), nil
	}
}

func (p *Plugin) filename(_ *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	return StoredName(fh.Filename, p.now().UnixMilli()), nil
}

// Destination returns the directory an upload with the given path hint is
// written to. A usable hint selects its directory portion below base, which is
// created if missing; anything else, including hints containing ".." or a NUL
// byte, falls back to base.
func Destination(base, hint string) string {
	sub := hintDir(hint)
	if sub == "" {
		return base
	}
	dir := filepath.Join(base, sub)
	ensureDir(dir)
	return dir
}

func hintDir(hint string) string {
	if hint == "" || strings.Contains(hint, "..") || strings.ContainsRune(hint, 0) {
		return ""
	}
	dir := path.Dir(filepath.ToSlash(hint))
	if dir == "." || dir == "/" {
		return ""
	}
	return filepath.FromSlash(dir)
}

// StoredName returns the on-disk name for an uploaded file: the stem, a dash,
// the millisecond timestamp, then the extension. The split happens at the last
// dot; names without one (or whose only dot leads, as in ".env") are all stem.
func StoredName(original string, millis int64) string {
	name := filepath.Base(original)
	stem, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		stem, ext = name[:i], name[i:]
	}
	return fmt.Sprintf("%s-%d%s", stem, millis, ext)
}

// PublicPath maps a stored file path to its URL by replacing the upload
// directory prefix with the public route.
func PublicPath(cfg *Config, stored string) (string, error) {
	rel, err := relativePath(cfg.Directory, stored)
	if err != nil {
		return "", err
	}
	return path.Join(cfg.PublicRoute, rel), nil
}

func relativePath(dir, stored string) (string, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(stored)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, stored)
	}
	return filepath.ToSlash(rel), nil
}

func ensureDir(dir string) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		logging.Error("upload_directory_create_failed", err, logging.Fields{"directory": dir})
	}
}
