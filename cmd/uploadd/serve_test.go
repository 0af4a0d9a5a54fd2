package main

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"fileupload/internal/config"
	"fileupload/internal/http/middleware"
	"fileupload/internal/logging"
	"fileupload/internal/upload"
)

const testMaxBytes = 16

func newTestServer(t *testing.T) (*fiber.App, string) {
	t.Helper()
	prev := logging.SetOutput(io.Discard)
	t.Cleanup(func() { logging.SetOutput(prev) })

	dir := filepath.Join(t.TempDir(), "uploads")
	cfg := &config.AppConfig{
		Upload: config.UploadConfig{Directory: dir, MaxBytes: testMaxBytes},
	}

	st, err := newStack(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	app, err := st.app(context.Background())
	require.NoError(t, err)
	return app, dir
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestServeApp_Upload(t *testing.T) {
	app, dir := newTestServer(t)

	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantBody   string
	}{
		{
			name: "file within the limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, upload.FileField, "notes.txt", "hello")
			},
			wantStatus: fiber.StatusOK,
			wantBody:   "/uploads/notes-",
		},
		{
			name: "file above the limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, upload.FileField, "notes.txt", strings.Repeat("x", testMaxBytes+1))
			},
			wantStatus: fiber.StatusUnprocessableEntity,
			wantBody:   upload.ErrFileTooLarge.Error(),
		},
		{
			name: "form urlencoded body",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("file=hello"))
				req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
				return req
			},
			wantStatus: fiber.StatusUnprocessableEntity,
			wantBody:   middleware.ErrNotMultipart,
		},
		{
			name: "wrong field name",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "image", "notes.txt", "hello")
			},
			wantStatus: fiber.StatusUnprocessableEntity,
			wantBody:   "there is no uploaded file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(tt.req(t))
			require.NoError(t, err)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, string(body), tt.wantBody)
			assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMETextPlain)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// The server rejects bodies above BodyLimit before routing and hands the
// error straight to the ErrorHandler, the way this test does.
func TestServeApp_BodyLimit(t *testing.T) {
	app, _ := newTestServer(t)
	assert.Equal(t, testMaxBytes+multipartOverhead, app.Config().BodyLimit)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"upload route", "/upload", fiber.StatusUnprocessableEntity, upload.ErrFileTooLarge.Error()},
		{"other route", "/archive", fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fctx := &fasthttp.RequestCtx{}
			fctx.Request.Header.SetMethod(fiber.MethodPost)
			fctx.Request.SetRequestURI(tt.path)
			c := app.AcquireCtx(fctx)
			defer app.ReleaseCtx(c)

			require.NoError(t, app.Config().ErrorHandler(c, fiber.ErrRequestEntityTooLarge))

			assert.Equal(t, tt.wantStatus, fctx.Response.StatusCode())
			assert.Contains(t, string(fctx.Response.Body()), tt.wantBody)
		})
	}
}

func TestNewStack_WarnsWhenRoutesUnbound(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(prev) })

	cfg := &config.AppConfig{Upload: config.UploadConfig{
		Directory: t.TempDir(),
		Events:    "bindRoutes=late-routes",
		MaxBytes:  testMaxBytes,
	}}

	st, err := newStack(cfg, prometheus.NewRegistry())
	require.NoError(t, err)

	assert.True(t, st.bus.Has("late-routes"))
	assert.Contains(t, buf.String(), `"msg":"upload_routes_unbound"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
