// Package storage is the S3-compatible object store archived uploads are copied to.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"time"
)

// ErrObjectNotFound is returned by Get for a key that does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// User metadata stored with every archived upload.
const (
	MetaOriginalFilename = "original-filename"
	MetaPublicPath       = "public-path"
)

const uploadKeyPrefix = "uploads"

// UploadKey returns the object key of an archived upload. id keeps two uploads
// stored under the same relative path from sharing an object.
func UploadKey(id, relativePath string) string {
	return path.Join(uploadKeyPrefix, id, relativePath)
}

// PutObjectOptions describe an object being written. Size is -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is where archived uploads are kept.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get streams an object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a download URL valid for expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
