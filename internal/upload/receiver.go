package upload

import (
	"errors"
	"mime/multipart"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// DestinationFunc returns the directory a received file is written to.
type DestinationFunc func(c *fiber.Ctx, fh *multipart.FileHeader) (string, error)

// FilenameFunc returns the name a received file is stored under.
type FilenameFunc func(c *fiber.Ctx, fh *multipart.FileHeader) (string, error)

// Received is the outcome of a successful Receive.
type Received struct {
	OriginalName string
	Path         string
	Size         int64
	ContentType  string
}

// Receiver decodes one file from a multipart request and writes it to the
// location chosen by dest and name.
type Receiver interface {
	Receive(c *fiber.Ctx, field string, dest DestinationFunc, name FilenameFunc) (*Received, error)
}

// ErrFileTooLarge is returned for a file above the receiver's size limit.
var ErrFileTooLarge = errors.New("file too large")

// FormReceiver is the Receiver backed by Fiber's multipart form support.
type FormReceiver struct {
	// MaxBytes caps the size of a received file. Zero means no limit.
	MaxBytes int64
}

var _ Receiver = FormReceiver{}

// Receive reads field from the multipart form and saves it with c.SaveFile.
func (r FormReceiver) Receive(c *fiber.Ctx, field string, dest DestinationFunc, name FilenameFunc) (*Received, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	if r.MaxBytes > 0 && fh.Size > r.MaxBytes {
		return nil, ErrFileTooLarge
	}

	dir, err := dest(c, fh)
	if err != nil {
		return nil, err
	}
	filename, err := name(c, fh)
	if err != nil {
		return nil, err
	}

	p := filepath.Join(dir, filename)
	if err := c.SaveFile(fh, p); err != nil {
		return nil, err
	}

	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}

	return &Received{
		OriginalName: fh.Filename,
		Path:         p,
		Size:         fh.Size,
		ContentType:  ct,
	}, nil
}
