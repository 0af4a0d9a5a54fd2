package postgres

import (
	"context"
	"database/sql"

	"fileupload/internal/model"
	"fileupload/internal/repository"
)

const uploadColumns = `id, filename, original_name, storage_path, public_path, size, content_type, created_at`

// UploadPostgres is a PostgreSQL implementation of repository.UploadRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UploadPostgres struct {
	db *sql.DB
}

// NewUploadPostgres creates a new UploadPostgres repository.
func NewUploadPostgres(db *sql.DB) *UploadPostgres {
	return &UploadPostgres{db: db}
}

var _ repository.UploadRepository = (*UploadPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (*model.Upload, error) {
	var u model.Upload
	if err := s.Scan(
		&u.ID,
		&u.Filename,
		&u.OriginalName,
		&u.StoragePath,
		&u.PublicPath,
		&u.Size,
		&u.ContentType,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new upload row and returns the stored record.
func (r *UploadPostgres) Create(ctx context.Context, u *model.Upload) (*model.Upload, error) {
	const q = `
		INSERT INTO uploads (` + uploadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + uploadColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Filename,
		u.OriginalName,
		u.StoragePath,
		u.PublicPath,
		u.Size,
		u.ContentType,
		u.CreatedAt,
	)
	return scanUpload(row)
}

// FindByID fetches a single upload by its ID. A missing row yields sql.ErrNoRows.
func (r *UploadPostgres) FindByID(ctx context.Context, id string) (*model.Upload, error) {
	const q = `
		SELECT ` + uploadColumns + `
		FROM uploads
		WHERE id = $1
	`
	return scanUpload(r.db.QueryRowContext(ctx, q, id))
}

// List returns uploads using LIMIT/OFFSET pagination and a total count.
func (r *UploadPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Upload], error) {
	const qCount = `SELECT COUNT(*) FROM uploads`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + uploadColumns + `
		FROM uploads
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Upload, 0)
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Upload]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes an upload by ID. It does not return an error if the row does not exist.
func (r *UploadPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM uploads WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
