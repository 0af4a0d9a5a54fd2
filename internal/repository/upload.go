// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g. postgres).
package repository

import (
	"context"

	"fileupload/internal/model"
)

// UploadRepository defines data access for archived uploads using SQL queries only.
// No business logic here, strictly persistence operations.
type UploadRepository interface {
	// Create inserts a new upload record and returns the stored row.
	Create(ctx context.Context, u *model.Upload) (*model.Upload, error)

	// FindByID returns an upload by its ID.
	FindByID(ctx context.Context, id string) (*model.Upload, error)

	// List returns a paginated list of uploads and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Upload], error)

	// Delete removes an upload by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
