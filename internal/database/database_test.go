package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"fileupload/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:               "db",
		Port:               "5432",
		User:               "uploader",
		Name:               "uploads",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
	}
}

// stubOpen makes NewPostgres use db instead of dialing.
func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, err }
	t.Cleanup(func() { sqlOpen = orig })
}

func TestBuildPostgresDSN(t *testing.T) {
	t.Run("query parameters", func(t *testing.T) {
		c := catalogConfig()
		c.Password = "s3cret"
		c.SSLMode = "require"
		c.ApplicationName = "fileupload"

		got, err := BuildPostgresDSN(c)

		require.NoError(t, err)
		assert.Equal(t, "postgres://uploader:s3cret@db:5432/uploads?application_name=fileupload&sslmode=require", got)
	})

	t.Run("no password or parameters", func(t *testing.T) {
		got, err := BuildPostgresDSN(catalogConfig())

		require.NoError(t, err)
		assert.Equal(t, "postgres://uploader@db:5432/uploads", got)
	})

	t.Run("names every missing setting", func(t *testing.T) {
		_, err := BuildPostgresDSN(config.DatabaseConfig{Port: "5432"})

		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.EqualError(t, err, "invalid database config: DB_HOST, DB_USER, DB_NAME required when archiving is enabled")
	})
}

func TestNewPostgres(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)

		mock.ExpectPing()

		gotDB, err := NewPostgres(context.Background(), catalogConfig())
		assert.NoError(t, err)
		assert.Same(t, db, gotDB)
		assert.Equal(t, 10, gotDB.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open error", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		gotDB, err := NewPostgres(context.Background(), catalogConfig())
		assert.EqualError(t, err, "sql open: open error")
		assert.Nil(t, gotDB)
	})

	t.Run("ping error", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing().WillReturnError(errors.New("ping failed"))

		gotDB, err := NewPostgres(context.Background(), catalogConfig())
		assert.EqualError(t, err, "db ping: ping failed")
		assert.Nil(t, gotDB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled context", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		gotDB, err := NewPostgres(ctx, catalogConfig())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, gotDB)
	})

	t.Run("incomplete config", func(t *testing.T) {
		gotDB, err := NewPostgres(context.Background(), config.DatabaseConfig{})
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, gotDB)
	})
}
