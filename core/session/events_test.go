package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/session"
)

func TestEventHandler_NotifyStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("publishes session id", func(t *testing.T) {
		t.Parallel()

		bus := &recordingBus{}
		h := session.NewEventHandler(bus)

		require.NoError(t, h.NotifyStart(ctx, sessionWithID(t, "id-1")))
		assert.Equal(t, []any{session.StartPayload{SessionID: "id-1"}}, bus.byTopic(session.TopicStart))
	})

	t.Run("session without id fails", func(t *testing.T) {
		t.Parallel()

		bus := &recordingBus{}
		h := session.NewEventHandler(bus)

		err := h.NotifyStart(ctx, session.New(t0, "", 0, 0))
		assert.ErrorIs(t, err, session.ErrSessionEvent)
		assert.ErrorIs(t, h.NotifyStart(ctx, nil), session.ErrSessionEvent)
		assert.Empty(t, bus.byTopic(session.TopicStart))
	})
}

func TestEventHandler_NotifyStopAndExpiration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus := &recordingBus{}
	h := session.NewEventHandler(bus)
	tuple := session.Tuple{Identifiers: "user-1", Key: session.NewKey("id-1")}

	require.NoError(t, h.NotifyStop(ctx, tuple))
	require.NoError(t, h.NotifyExpiration(ctx, tuple))

	assert.Equal(t, []any{session.TuplePayload{Items: tuple}}, bus.byTopic(session.TopicStop))
	assert.Equal(t, []any{session.TuplePayload{Items: tuple}}, bus.byTopic(session.TopicExpire))
}

func TestEventHandler_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tuple := session.Tuple{Key: session.NewKey("id-1")}

	t.Run("no bus configured", func(t *testing.T) {
		t.Parallel()

		h := session.NewEventHandler(nil)
		assert.ErrorIs(t, h.NotifyStop(ctx, tuple), session.ErrSessionEvent)
		assert.ErrorIs(t, h.NotifyExpiration(ctx, tuple), session.ErrSessionEvent)
		assert.ErrorIs(t, h.NotifyStart(ctx, sessionWithID(t, "id-1")), session.ErrSessionEvent)
	})

	t.Run("bus error is wrapped", func(t *testing.T) {
		t.Parallel()

		errBus := errors.New("broker unavailable")
		h := session.NewEventHandler(&recordingBus{err: errBus})

		err := h.NotifyStop(ctx, tuple)
		assert.ErrorIs(t, err, session.ErrSessionEvent)
		assert.ErrorIs(t, err, errBus)
	})

	t.Run("bus can be set later", func(t *testing.T) {
		t.Parallel()

		h := session.NewEventHandler(nil)
		assert.Nil(t, h.EventBus())

		bus := &recordingBus{}
		h.SetEventBus(bus)
		require.NoError(t, h.NotifyStop(ctx, tuple))
		assert.Len(t, bus.byTopic(session.TopicStop), 1)
	})
}

func TestFactory(t *testing.T) {
	t.Parallel()

	cfg := session.DefaultConfig()
	f := session.NewFactory(cfg, func() time.Time { return t0 })

	s, err := f.CreateSession(session.Context{Host: "10.1.1.1"})
	require.NoError(t, err)
	assert.Equal(t, cfg.IdleTimeout, s.IdleTimeout())
	assert.Equal(t, cfg.AbsoluteTimeout, s.AbsoluteTimeout())
	assert.Equal(t, t0, s.StartTimestamp())
	assert.Equal(t, "10.1.1.1", s.Host())

	s, err = f.CreateSession(session.Context{IdleTimeout: time.Second, AbsoluteTimeout: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, time.Second, s.IdleTimeout())
	assert.Equal(t, time.Minute, s.AbsoluteTimeout())
}
