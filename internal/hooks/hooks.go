// Package hooks is the in-process event system plugins subscribe to.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidPayload is returned by handlers that receive a payload of an unexpected type.
var ErrInvalidPayload = errors.New("hooks: invalid payload")

// Handler reacts to a dispatched event.
type Handler func(ctx context.Context, payload any) error

// Registrar subscribes handlers to named events.
type Registrar interface {
	On(event string, h Handler)
}

// Emitter dispatches named events.
type Emitter interface {
	Dispatch(ctx context.Context, event string, payload any) error
}

// Dispatcher maps event names to handlers. It is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

var (
	_ Registrar = (*Dispatcher)(nil)
	_ Emitter   = (*Dispatcher)(nil)
)

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// On subscribes h to event. Handlers run in subscription order.
func (d *Dispatcher) On(event string, h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	d.handlers[event] = append(d.handlers[event], h)
	d.mu.Unlock()
}

// Has reports whether event has at least one subscriber.
func (d *Dispatcher) Has(event string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[event]) > 0
}

// Dispatch runs every handler subscribed to event with payload. All handlers
// run even if some fail; their errors are joined.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, payload any) error {
	d.mu.RLock()
	hs := slices.Clone(d.handlers[event])
	d.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", event, err))
		}
	}
	return errors.Join(errs...)
}
