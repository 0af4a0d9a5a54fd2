// Package upload accepts single-file uploads, stores them under a configured
// directory and serves them back on a public route.
//
// The plugin is registered with a hooks.Registrar; the host then dispatches
// EventBindRoutes with its fiber.Router to mount the routes:
//
//	bus := hooks.New()
//	p, _ := upload.New(map[string]any{
//		"directory":   "var/uploads",
//		"route":       "/upload",
//		"publicRoute": "/uploads",
//	})
//	_ = p.Register(bus)
//	_ = bus.Dispatch(ctx, upload.EventBindRoutes, app)
package upload

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fileupload/internal/hooks"
)

// Hookable plugin methods.
const (
	MethodBindRoutes = "bindRoutes"
)

// Events.
const (
	// EventBindRoutes is the default event bindRoutes is subscribed to.
	EventBindRoutes = "bind-routes"
	// EventStored is dispatched with a model.StoredFile after every successful upload.
	EventStored = "upload-stored"
)

// Form fields read by the upload handler.
const (
	FileField     = "file"
	PathHintField = "fullPath"
)

const tracerName = "fileupload/internal/upload"

// Plugin is the upload plugin. Its configuration section is read again on
// every request, so Configure takes effect immediately.
type Plugin struct {
	mu      sync.RWMutex
	section map[string]any

	receiver Receiver
	now      func() time.Time
	emitter  hooks.Emitter
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithReceiver replaces the multipart receiver.
func WithReceiver(r Receiver) Option {
	return func(p *Plugin) { p.receiver = r }
}

// WithClock sets the time source used for stored file names.
func WithClock(now func() time.Time) Option {
	return func(p *Plugin) { p.now = now }
}

// WithEmitter sets where EventStored is dispatched.
func WithEmitter(e hooks.Emitter) Option {
	return func(p *Plugin) { p.emitter = e }
}

// WithMetrics enables upload metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Plugin) { p.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(p *Plugin) { p.tracer = t }
}

// New validates section and returns a plugin reading it. directory, route and
// publicRoute must be set explicitly; the remaining keys fall back to
// DefaultConfig.
func New(section map[string]any, opts ...Option) (*Plugin, error) {
	if err := CheckRequired(section); err != nil {
		return nil, err
	}
	if _, err := Decode(section); err != nil {
		return nil, err
	}

	p := &Plugin{
		section:  maps.Clone(section),
		receiver: FormReceiver{},
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Configure replaces the configuration section. It is validated on the next
// use, not here.
func (p *Plugin) Configure(section map[string]any) {
	p.mu.Lock()
	p.section = maps.Clone(section)
	p.mu.Unlock()
}

// Section returns a copy of the current configuration section.
func (p *Plugin) Section() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.section)
}

// Effective decodes the current section.
func (p *Plugin) Effective() (*Config, error) {
	return Decode(p.Section())
}

// Register subscribes the plugin's methods to the events named in the
// configuration. Unknown method names fail before anything is subscribed.
func (p *Plugin) Register(r hooks.Registrar) error {
	cfg, err := p.Effective()
	if err != nil {
		return err
	}

	methods := map[string]hooks.Handler{
		MethodBindRoutes: p.bindRoutesHook,
	}

	names := slices.Sorted(maps.Keys(cfg.Events))
	for _, method := range names {
		if _, ok := methods[method]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownMethod, method)
		}
	}
	for _, method := range names {
		for _, event := range cfg.Events[method] {
			r.On(event, methods[method])
		}
	}
	return nil
}

func (p *Plugin) bindRoutesHook(_ context.Context, payload any) error {
	r, ok := payload.(fiber.Router)
	if !ok {
		return fmt.Errorf("%w: %s expects fiber.Router, got %T", hooks.ErrInvalidPayload, MethodBindRoutes, payload)
	}
	return p.BindRoutes(r)
}
