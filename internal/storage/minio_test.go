package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"fileupload/internal/config"
)

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.MinIOConfig
		errMsg string
	}{
		{
			name:   "missing endpoint",
			cfg:    config.MinIOConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"},
			errMsg: "endpoint is required",
		},
		{
			name:   "missing credentials",
			cfg:    config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"},
			errMsg: "credentials are required",
		},
		{
			name:   "missing bucket",
			cfg:    config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"},
			errMsg: "bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewMinIO(context.Background(), tt.cfg)
			assert.Nil(t, st)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestMapError(t *testing.T) {
	notFound := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	assert.ErrorIs(t, mapError(notFound), ErrObjectNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	assert.NotErrorIs(t, mapError(denied), ErrObjectNotFound)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapError(plain))
	assert.NoError(t, mapError(nil))
}
