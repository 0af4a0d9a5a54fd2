package model

import "time"

// StoredFile describes a file the upload handler has just written to disk.
type StoredFile struct {
	// Name is the generated file name, e.g. photo-1700000000000.png.
	Name string `json:"name"`
	// OriginalName is the file name the client sent.
	OriginalName string `json:"original_name"`
	// Path is the absolute path of the file on disk.
	Path string `json:"path"`
	// RelativePath is Path relative to the upload directory, slash separated.
	RelativePath string `json:"relative_path"`
	// PublicPath is the URL path the file is served under.
	PublicPath  string    `json:"public_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	StoredAt    time.Time `json:"stored_at"`
}

// Upload is the archive record of a stored file.
// This is a pure domain model with no database-specific dependencies or tags.
type Upload struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	StoragePath  string    `json:"storage_path"`
	PublicPath   string    `json:"public_path"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
}
