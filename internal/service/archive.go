package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"fileupload/internal/hooks"
	"fileupload/internal/model"
	"fileupload/internal/repository"
	"fileupload/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("upload not found")
	ErrPathRequired = errors.New("stored file path is required")
)

// UploadListResult is the service-level DTO for paginated uploads.
type UploadListResult struct {
	Items []model.Upload `json:"data"`
	Total int            `json:"total"`
}

// ArchiveService copies stored uploads to object storage and keeps a catalog of them.
type ArchiveService interface {
	// Archive puts the stored file into object storage and records it. The
	// object is removed again if the record cannot be saved.
	Archive(ctx context.Context, f model.StoredFile) (*model.Upload, error)

	// List returns archived uploads using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*UploadListResult, error)

	// Get returns a single archived upload by its ID.
	Get(ctx context.Context, id string) (*model.Upload, error)

	// Open streams the archived object of an upload. The caller closes the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, *model.Upload, error)

	// Link returns a presigned download URL for an archived upload.
	Link(ctx context.Context, id string, expiry time.Duration) (string, error)

	// Delete removes an archived upload from object storage and the catalog.
	// The file in the upload directory is left alone.
	Delete(ctx context.Context, id string) error
}

type archiveService struct {
	store storage.Storage
	repo  repository.UploadRepository
	now   func() time.Time
	newID func() string
}

// NewArchiveService constructs a new ArchiveService.
func NewArchiveService(store storage.Storage, repo repository.UploadRepository) ArchiveService {
	return &archiveService{store: store, repo: repo, now: time.Now, newID: uuid.NewString}
}

// StoredHook adapts svc to the upload-stored event.
func StoredHook(svc ArchiveService) hooks.Handler {
	return func(ctx context.Context, payload any) error {
		f, ok := payload.(model.StoredFile)
		if !ok {
			return fmt.Errorf("%w: expected model.StoredFile, got %T", hooks.ErrInvalidPayload, payload)
		}
		_, err := svc.Archive(ctx, f)
		return err
	}
}

func (s *archiveService) Archive(ctx context.Context, f model.StoredFile) (*model.Upload, error) {
	if f.Path == "" {
		return nil, ErrPathRequired
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	defer file.Close()

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	id := s.newID()
	key := storage.UploadKey(id, f.RelativePath)

	objInfo, err := s.store.Put(ctx, key, file, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: ct,
		Metadata: map[string]string{
			storage.MetaOriginalFilename: f.OriginalName,
			storage.MetaPublicPath:       f.PublicPath,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	createdAt := f.StoredAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	rec := &model.Upload{
		ID:           id,
		Filename:     f.Name,
		OriginalName: f.OriginalName,
		StoragePath:  objInfo.Key,
		PublicPath:   f.PublicPath,
		Size:         objInfo.Size,
		ContentType:  ct,
		CreatedAt:    createdAt,
	}
	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *archiveService) List(ctx context.Context, limit, offset int) (*UploadListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &UploadListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *archiveService) Get(ctx context.Context, id string) (*model.Upload, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *archiveService) Open(ctx context.Context, id string) (io.ReadCloser, *model.Upload, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, info, err := s.store.Get(ctx, u.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	if info.ContentType != "" {
		u.ContentType = info.ContentType
	}
	return rc, u, nil
}

func (s *archiveService) Link(ctx context.Context, id string, expiry time.Duration) (string, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	link, err := s.store.PresignGet(ctx, u.StoragePath, expiry)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return link, nil
}

func (s *archiveService) Delete(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	// Storage first: a failed delete keeps the row pointing at the object.
	if err := s.store.Delete(ctx, u.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}
