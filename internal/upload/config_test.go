package upload

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	noop := func(c *fiber.Ctx) error { return c.Next() }

	tests := []struct {
		name    string
		section map[string]any
		wantErr error
		errMsg  string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "missing section",
			section: nil,
			wantErr: ErrConfigMissing,
		},
		{
			name:    "empty section decodes to defaults",
			section: map[string]any{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "uploads", cfg.Directory)
				assert.Equal(t, "/upload", cfg.Route)
				assert.Equal(t, "/uploads", cfg.PublicRoute)
				assert.Empty(t, cfg.Middleware)
				assert.Equal(t, []string{EventBindRoutes}, cfg.Events[MethodBindRoutes])
			},
		},
		{
			name: "caller values override defaults",
			section: map[string]any{
				KeyDirectory:   "var/files",
				KeyRoute:       "/files",
				KeyPublicRoute: "/static/files",
				KeyMiddleware:  []fiber.Handler{noop, noop},
				KeyEvents:      map[string]any{MethodBindRoutes: []any{"routes", "late-routes"}},
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "var/files", cfg.Directory)
				assert.Equal(t, "/files", cfg.Route)
				assert.Equal(t, "/static/files", cfg.PublicRoute)
				assert.Len(t, cfg.Middleware, 2)
				assert.Equal(t, []string{"routes", "late-routes"}, cfg.Events[MethodBindRoutes])
			},
		},
		{
			name:    "middleware as []any",
			section: map[string]any{KeyMiddleware: []any{noop}},
			check: func(t *testing.T, cfg *Config) {
				assert.Len(t, cfg.Middleware, 1)
			},
		},
		{
			name:    "directory not a string",
			section: map[string]any{KeyDirectory: 42},
			wantErr: ErrInvalidConfig,
			errMsg:  "directory must be a string",
		},
		{
			name:    "route not a string",
			section: map[string]any{KeyRoute: true},
			wantErr: ErrInvalidConfig,
			errMsg:  "route must be a string",
		},
		{
			name:    "publicRoute not a string",
			section: map[string]any{KeyPublicRoute: []string{"/uploads"}},
			wantErr: ErrInvalidConfig,
			errMsg:  "publicRoute must be a string",
		},
		{
			name:    "middleware not an array",
			section: map[string]any{KeyMiddleware: "auth"},
			wantErr: ErrInvalidConfig,
			errMsg:  "middleware must be an array",
		},
		{
			name:    "middleware entry not a handler",
			section: map[string]any{KeyMiddleware: []any{noop, "auth"}},
			wantErr: ErrInvalidConfig,
			errMsg:  "middleware[1]",
		},
		{
			name:    "nil middleware entry",
			section: map[string]any{KeyMiddleware: []fiber.Handler{nil}},
			wantErr: ErrInvalidConfig,
			errMsg:  "middleware[0] is nil",
		},
		{
			name:    "empty directory",
			section: map[string]any{KeyDirectory: ""},
			wantErr: ErrInvalidConfig,
			errMsg:  "directory must be a non-empty string",
		},
		{
			name:    "events not a map",
			section: map[string]any{KeyEvents: []string{"bind-routes"}},
			wantErr: ErrInvalidConfig,
			errMsg:  "events must map",
		},
		{
			name:    "event names not strings",
			section: map[string]any{KeyEvents: map[string]any{MethodBindRoutes: []any{1}}},
			wantErr: ErrInvalidConfig,
			errMsg:  "events.bindRoutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(tt.section)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestCheckRequired(t *testing.T) {
	full := map[string]any{KeyDirectory: "uploads", KeyRoute: "/upload", KeyPublicRoute: "/uploads"}
	assert.NoError(t, CheckRequired(full))
	assert.ErrorIs(t, CheckRequired(nil), ErrConfigMissing)

	for _, key := range []string{KeyDirectory, KeyRoute, KeyPublicRoute} {
		section := map[string]any{}
		for k, v := range full {
			if k != key {
				section[k] = v
			}
		}
		err := CheckRequired(section)
		assert.ErrorIs(t, err, ErrInvalidConfig, key)
		assert.Contains(t, err.Error(), key+" is required")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Directory: "uploads", Route: "/upload", PublicRoute: "/uploads"}
	}

	assert.NoError(t, Validate(valid()))
	assert.ErrorIs(t, Validate(nil), ErrConfigMissing)

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Directory = "" },
		func(c *Config) { c.Route = "" },
		func(c *Config) { c.PublicRoute = "" },
	} {
		cfg := valid()
		mutate(cfg)
		assert.ErrorIs(t, Validate(cfg), ErrInvalidConfig)
	}
}

func TestConfig_Section(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Directory = "var/uploads"

	back, err := Decode(cfg.Section())

	require.NoError(t, err)
	assert.Equal(t, cfg.Directory, back.Directory)
	assert.Equal(t, cfg.Events, back.Events)
}
