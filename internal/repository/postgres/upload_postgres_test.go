package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"fileupload/internal/model"
	"fileupload/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var columns = []string{"id", "filename", "original_name", "storage_path", "public_path", "size", "content_type", "created_at"}

func TestUploadPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUploadPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	u := &model.Upload{
		ID:           "test-uuid",
		Filename:     "photo-1700000000000.png",
		OriginalName: "photo.png",
		StoragePath:  "uploads/photo-1700000000000.png",
		PublicPath:   "/uploads/photo-1700000000000.png",
		Size:         123,
		ContentType:  "image/png",
		CreatedAt:    now,
	}

	rows := sqlmock.NewRows(columns).
		AddRow(u.ID, u.Filename, u.OriginalName, u.StoragePath, u.PublicPath, u.Size, u.ContentType, u.CreatedAt)

	mock.ExpectQuery("INSERT INTO uploads").
		WithArgs(u.ID, u.Filename, u.OriginalName, u.StoragePath, u.PublicPath, u.Size, u.ContentType, u.CreatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, u)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, u.ID, result.ID)
	assert.Equal(t, u.PublicPath, result.PublicPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUploadPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow("test-id", "a-1.txt", "a.txt", "uploads/a-1.txt", "/uploads/a-1.txt", 100, "text/plain", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM uploads WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(rows)

		u, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, u)
		assert.Equal(t, "test-id", u.ID)
		assert.Equal(t, "a.txt", u.OriginalName)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM uploads WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		u, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, u)
	})
}

func TestUploadPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUploadPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM uploads").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows(columns).
			AddRow("test-id", "a-1.txt", "a.txt", "uploads/a-1.txt", "/uploads/a-1.txt", 100, "text/plain", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM uploads ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM uploads").
			WillReturnError(errors.New("db down"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10})

		assert.EqualError(t, err, "db down")
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUploadPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM uploads WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
