package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("runs handlers in subscription order", func(t *testing.T) {
		d := New()
		var calls []string
		d.On("bind-routes", func(_ context.Context, payload any) error {
			calls = append(calls, "first:"+payload.(string))
			return nil
		})
		d.On("bind-routes", func(_ context.Context, payload any) error {
			calls = append(calls, "second:"+payload.(string))
			return nil
		})

		err := d.Dispatch(ctx, "bind-routes", "app")

		assert.NoError(t, err)
		assert.Equal(t, []string{"first:app", "second:app"}, calls)
	})

	t.Run("unknown event is a no-op", func(t *testing.T) {
		d := New()
		assert.NoError(t, d.Dispatch(ctx, "missing", nil))
		assert.False(t, d.Has("missing"))
	})

	t.Run("joins handler errors and keeps going", func(t *testing.T) {
		d := New()
		boom := errors.New("boom")
		called := false
		d.On("upload-stored", func(context.Context, any) error { return boom })
		d.On("upload-stored", func(context.Context, any) error {
			called = true
			return ErrInvalidPayload
		})

		err := d.Dispatch(ctx, "upload-stored", nil)

		assert.True(t, called)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.Contains(t, err.Error(), "upload-stored: boom")
	})

	t.Run("nil handler is ignored", func(t *testing.T) {
		d := New()
		d.On("bind-routes", nil)
		assert.False(t, d.Has("bind-routes"))
	})
}
