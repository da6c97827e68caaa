package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/event"
)

type SessionOpened struct {
	SessionID string `json:"session_id"`
	Host      string `json:"host"`
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	evt := event.NewEvent("SESSION.START", SessionOpened{SessionID: "s-1"})

	_, err := uuid.Parse(evt.ID)
	require.NoError(t, err, "event id should be a UUID")
	assert.Equal(t, "SESSION.START", evt.Topic)
	assert.Equal(t, SessionOpened{SessionID: "s-1"}, evt.Payload)
	assert.WithinDuration(t, time.Now(), evt.CreatedAt, time.Second)
}

func TestBus_Publish(t *testing.T) {
	t.Parallel()

	t.Run("delivers typed payload to subscribers in order", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		var order []string

		require.NoError(t, bus.Subscribe("SESSION.START", event.NewHandler("first",
			func(ctx context.Context, p SessionOpened) error {
				order = append(order, "first:"+p.SessionID)
				return nil
			})))
		require.NoError(t, bus.Subscribe("SESSION.START", event.NewHandler("second",
			func(ctx context.Context, p SessionOpened) error {
				order = append(order, "second:"+p.SessionID)
				return nil
			})))

		err := bus.Publish(context.Background(), "SESSION.START", SessionOpened{SessionID: "abc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"first:abc", "second:abc"}, order)
	})

	t.Run("topic without subscribers succeeds", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		assert.False(t, bus.HasSubscribers("SESSION.STOP"))
		assert.NoError(t, bus.Publish(context.Background(), "SESSION.STOP", nil))
	})

	t.Run("joins handler errors and keeps delivering", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		errFirst := errors.New("first failed")
		var secondCalled bool

		require.NoError(t, bus.Subscribe("t", event.NewHandler("first",
			func(ctx context.Context, p SessionOpened) error { return errFirst })))
		require.NoError(t, bus.Subscribe("t", event.NewHandler("second",
			func(ctx context.Context, p SessionOpened) error {
				secondCalled = true
				return nil
			})))

		err := bus.Publish(context.Background(), "t", SessionOpened{})
		require.Error(t, err)
		assert.ErrorIs(t, err, errFirst)
		assert.Contains(t, err.Error(), "handler first failed")
		assert.True(t, secondCalled)
	})

	t.Run("recovers handler panic", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		require.NoError(t, bus.Subscribe("t", event.NewHandler("boom",
			func(ctx context.Context, p SessionOpened) error { panic("boom") })))

		err := bus.Publish(context.Background(), "t", SessionOpened{})
		assert.ErrorIs(t, err, event.ErrHandlerPanic)
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, bus.Publish(ctx, "t", nil), context.Canceled)
	})

	t.Run("converts JSON payloads", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		var got SessionOpened
		require.NoError(t, bus.Subscribe("t", event.NewHandlerFunc(
			func(ctx context.Context, p SessionOpened) error {
				got = p
				return nil
			})))

		raw, err := json.Marshal(SessionOpened{SessionID: "raw", Host: "10.0.0.1"})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), "t", raw))
		assert.Equal(t, SessionOpened{SessionID: "raw", Host: "10.0.0.1"}, got)

		require.NoError(t, bus.Publish(context.Background(), "t", map[string]any{"session_id": "map"}))
		assert.Equal(t, "map", got.SessionID)
	})

	t.Run("wrong payload type fails", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		require.NoError(t, bus.Subscribe("t", event.NewHandlerFunc(
			func(ctx context.Context, p SessionOpened) error { return nil })))

		err := bus.Publish(context.Background(), "t", 42)
		assert.ErrorIs(t, err, event.ErrPayloadType)
	})

	t.Run("exposes event metadata to handlers", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		var topic, id string
		require.NoError(t, bus.Subscribe("SESSION.EXPIRE", event.NewHandlerFunc(
			func(ctx context.Context, p SessionOpened) error {
				topic = event.EventTopic(ctx)
				id = event.EventID(ctx)
				return nil
			})))

		require.NoError(t, bus.Publish(context.Background(), "SESSION.EXPIRE", SessionOpened{}))
		assert.Equal(t, "SESSION.EXPIRE", topic)
		assert.NotEmpty(t, id)
	})
}

func TestBus_Subscribe(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	assert.ErrorIs(t, bus.Subscribe("t", nil), event.ErrNilHandler)

	require.NoError(t, bus.Subscribe("t", event.NewHandlerFunc(
		func(ctx context.Context, p SessionOpened) error { return nil })))
	assert.True(t, bus.HasSubscribers("t"))
}

func TestBus_WithMiddleware(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	counting := func(next event.Handler) event.Handler {
		return event.NewHandler(next.Name(), func(ctx context.Context, p any) error {
			calls.Add(1)
			return next.Handle(ctx, p)
		})
	}

	bus := event.NewBus(event.WithMiddleware(counting))
	require.NoError(t, bus.Subscribe("t", event.NewHandlerFunc(
		func(ctx context.Context, p SessionOpened) error { return nil })))

	require.NoError(t, bus.Publish(context.Background(), "t", SessionOpened{}))
	require.NoError(t, bus.Publish(context.Background(), "t", SessionOpened{}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewHandlerFunc_Name(t *testing.T) {
	t.Parallel()

	h := event.NewHandlerFunc(func(ctx context.Context, p *SessionOpened) error { return nil })
	assert.Equal(t, "SessionOpened", h.Name())

	anon := event.NewHandlerFunc(func(ctx context.Context, p any) error { return nil })
	assert.Equal(t, "handler", anon.Name())
}

func TestChannelBus(t *testing.T) {
	t.Parallel()

	t.Run("delivers asynchronously and drains on close", func(t *testing.T) {
		t.Parallel()

		bus := event.NewChannelBus(event.WithBufferSize(10))

		var (
			mu  sync.Mutex
			got []string
		)
		require.NoError(t, bus.Subscribe("SESSION.START", event.NewHandlerFunc(
			func(ctx context.Context, p SessionOpened) error {
				mu.Lock()
				got = append(got, p.SessionID)
				mu.Unlock()
				return nil
			})))

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, bus.Publish(context.Background(), "SESSION.START", SessionOpened{SessionID: id}))
		}

		require.NoError(t, bus.Close())

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("publish after close fails", func(t *testing.T) {
		t.Parallel()

		bus := event.NewChannelBus()
		require.NoError(t, bus.Close())

		assert.ErrorIs(t, bus.Publish(context.Background(), "t", nil), event.ErrBusClosed)
		assert.ErrorIs(t, bus.Close(), event.ErrBusClosed)
	})

	t.Run("full buffer rejects publish", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		started := make(chan struct{}, 1)
		bus := event.NewChannelBus(event.WithBufferSize(1))
		require.NoError(t, bus.Subscribe("t", event.NewHandlerFunc(
			func(ctx context.Context, p SessionOpened) error {
				select {
				case started <- struct{}{}:
				default:
				}
				<-release
				return nil
			})))

		// first event occupies the worker, second fills the buffer
		require.NoError(t, bus.Publish(context.Background(), "t", SessionOpened{}))
		<-started
		require.NoError(t, bus.Publish(context.Background(), "t", SessionOpened{}))

		assert.ErrorIs(t, bus.Publish(context.Background(), "t", SessionOpened{}), event.ErrBufferFull)

		close(release)
		require.NoError(t, bus.Close())
	})

	t.Run("blocking publish honours context", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		started := make(chan struct{}, 1)
		bus := event.NewChannelBus(event.WithBufferSize(1), event.WithBlockingPublish())
		require.NoError(t, bus.Subscribe("t", event.NewHandlerFunc(
			func(ctx context.Context, p SessionOpened) error {
				select {
				case started <- struct{}{}:
				default:
				}
				<-release
				return nil
			})))

		require.NoError(t, bus.Publish(context.Background(), "t", SessionOpened{}))
		<-started
		require.NoError(t, bus.Publish(context.Background(), "t", SessionOpened{}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, bus.Publish(ctx, "t", SessionOpened{}), context.DeadlineExceeded)

		close(release)
		require.NoError(t, bus.Close())
	})
}
