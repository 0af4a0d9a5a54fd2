package upload

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gofiber/fiber/v2"
)

// ConfigKey is the name of the plugin's section in a host configuration.
const ConfigKey = "upload"

// Section keys.
const (
	KeyDirectory   = "directory"
	KeyRoute       = "route"
	KeyPublicRoute = "publicRoute"
	KeyMiddleware  = "middleware"
	KeyEvents      = "events"
)

var (
	ErrConfigMissing = errors.New("upload: configuration section is missing")
	ErrInvalidConfig = errors.New("upload: invalid configuration")
	ErrUnknownMethod = errors.New("upload: unknown hook method")
)

// Config is the effective plugin configuration.
type Config struct {
	// Directory is where uploaded files are written.
	Directory string
	// Route is the path uploads are POSTed to.
	Route string
	// PublicRoute is the URL prefix stored files are served under.
	PublicRoute string
	// Middleware runs before the upload handler, in order.
	Middleware []fiber.Handler
	// Events maps a plugin method name to the events it is subscribed to.
	Events map[string][]string
}

// requiredKeys must be present in the section a plugin is created with.
var requiredKeys = []string{KeyDirectory, KeyRoute, KeyPublicRoute}

// CheckRequired reports the first required key absent from section. Defaults
// are not consulted.
func CheckRequired(section map[string]any) error {
	if section == nil {
		return ErrConfigMissing
	}
	for _, key := range requiredKeys {
		if _, ok := section[key]; !ok {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, key)
		}
	}
	return nil
}

// DefaultConfig returns the configuration every section is overlaid onto.
func DefaultConfig() *Config {
	return &Config{
		Directory:   "uploads",
		Route:       "/upload",
		PublicRoute: "/uploads",
		Middleware:  []fiber.Handler{},
		Events: map[string][]string{
			MethodBindRoutes: {EventBindRoutes},
		},
	}
}

// Decode overlays a raw configuration section onto DefaultConfig and validates
// the result. Keys missing from section keep their default value.
func Decode(section map[string]any) (*Config, error) {
	if section == nil {
		return nil, ErrConfigMissing
	}

	cfg := DefaultConfig()
	var err error

	if cfg.Directory, err = stringKey(section, KeyDirectory, cfg.Directory); err != nil {
		return nil, err
	}
	if cfg.Route, err = stringKey(section, KeyRoute, cfg.Route); err != nil {
		return nil, err
	}
	if cfg.PublicRoute, err = stringKey(section, KeyPublicRoute, cfg.PublicRoute); err != nil {
		return nil, err
	}
	if v, ok := section[KeyMiddleware]; ok {
		if cfg.Middleware, err = middlewareValue(v); err != nil {
			return nil, err
		}
	}
	if v, ok := section[KeyEvents]; ok {
		if cfg.Events, err = eventsValue(v); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the required fields are present.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrConfigMissing
	}
	if cfg.Directory == "" {
		return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidConfig, KeyDirectory)
	}
	if cfg.Route == "" {
		return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidConfig, KeyRoute)
	}
	if cfg.PublicRoute == "" {
		return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidConfig, KeyPublicRoute)
	}
	for i, h := range cfg.Middleware {
		if h == nil {
			return fmt.Errorf("%w: %s[%d] is nil", ErrInvalidConfig, KeyMiddleware, i)
		}
	}
	return nil
}

// Section converts cfg back into its raw form.
func (cfg *Config) Section() map[string]any {
	events := make(map[string][]string, len(cfg.Events))
	for k, v := range cfg.Events {
		events[k] = slices.Clone(v)
	}
	return map[string]any{
		KeyDirectory:   cfg.Directory,
		KeyRoute:       cfg.Route,
		KeyPublicRoute: cfg.PublicRoute,
		KeyMiddleware:  slices.Clone(cfg.Middleware),
		KeyEvents:      events,
	}
}

func stringKey(section map[string]any, key, def string) (string, error) {
	v, ok := section[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidConfig, key, v)
	}
	return s, nil
}

func middlewareValue(v any) ([]fiber.Handler, error) {
	switch mw := v.(type) {
	case nil:
		return []fiber.Handler{}, nil
	case []fiber.Handler:
		return slices.Clone(mw), nil
	case fiber.Handler:
		return []fiber.Handler{mw}, nil
	case []any:
		out := make([]fiber.Handler, 0, len(mw))
		for i, item := range mw {
			h, ok := item.(fiber.Handler)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a request handler, got %T", ErrInvalidConfig, KeyMiddleware, i, item)
			}
			out = append(out, h)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an array of request handlers, got %T", ErrInvalidConfig, KeyMiddleware, v)
	}
}

func eventsValue(v any) (map[string][]string, error) {
	switch ev := v.(type) {
	case nil:
		return map[string][]string{}, nil
	case map[string][]string:
		out := maps.Clone(ev)
		for k, names := range out {
			out[k] = slices.Clone(names)
		}
		return out, nil
	case map[string]any:
		out := make(map[string][]string, len(ev))
		for method, raw := range ev {
			names, err := eventNames(method, raw)
			if err != nil {
				return nil, err
			}
			out[method] = names
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must map method names to event names, got %T", ErrInvalidConfig, KeyEvents, v)
	}
}

func eventNames(method string, raw any) ([]string, error) {
	switch names := raw.(type) {
	case []string:
		return slices.Clone(names), nil
	case []any:
		out := make([]string, 0, len(names))
		for _, n := range names {
			s, ok := n.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s must contain event names, got %T", ErrInvalidConfig, KeyEvents, method, n)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s.%s must be an array of event names, got %T", ErrInvalidConfig, KeyEvents, method, raw)
	}
}
