package event

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// DefaultChannelBufferSize is the default queue size of a ChannelBus.
const DefaultChannelBufferSize = 100

// ChannelBus queues published payloads and delivers them on background
// workers, so publishers never wait for handlers. Handler errors are logged,
// not returned. Call Close to drain the queue and stop the workers.
type ChannelBus struct {
	dispatch *Bus
	queue    chan Event
	workers  int
	blocking bool
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// ChannelBusOption configures a ChannelBus.
type ChannelBusOption func(*ChannelBus)

// WithBufferSize sets the queue size. Default is 100.
func WithBufferSize(size int) ChannelBusOption {
	return func(b *ChannelBus) {
		if size > 0 {
			b.queue = make(chan Event, size)
		}
	}
}

// WithWorkers sets the number of delivery goroutines. Default is 1, which
// preserves publish order.
func WithWorkers(n int) ChannelBusOption {
	return func(b *ChannelBus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithBlockingPublish makes Publish wait for queue space until ctx is done
// instead of failing with ErrBufferFull.
func WithBlockingPublish() ChannelBusOption {
	return func(b *ChannelBus) {
		b.blocking = true
	}
}

// WithChannelLogger configures structured logging for the channel bus.
func WithChannelLogger(l *slog.Logger) ChannelBusOption {
	return func(b *ChannelBus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewChannelBus creates an asynchronous bus and starts its workers.
//
// Example:
//
//	bus := event.NewChannelBus(event.WithBufferSize(1000))
//	defer bus.Close()
func NewChannelBus(opts ...ChannelBusOption) *ChannelBus {
	b := &ChannelBus{
		queue:   make(chan Event, DefaultChannelBufferSize),
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.dispatch = NewBus(WithBusLogger(b.logger))

	for range b.workers {
		b.wg.Add(1)
		go b.work()
	}

	return b
}

// Subscribe registers h for topic.
func (b *ChannelBus) Subscribe(topic string, h Handler) error {
	return b.dispatch.Subscribe(topic, h)
}

// Publish enqueues payload for topic.
func (b *ChannelBus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	e := NewEvent(topic, payload)

	if b.blocking {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b.queue <- e:
			return nil
		}
	}

	select {
	case b.queue <- e:
		return nil
	default:
		b.logger.WarnContext(ctx, "event dropped, buffer full", logger.Topic(topic))
		return ErrBufferFull
	}
}

// Pending returns the number of queued, undelivered events.
func (b *ChannelBus) Pending() int {
	return len(b.queue)
}

// Close stops accepting events and waits until queued events are delivered.
func (b *ChannelBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("channel bus closed")
	return nil
}

func (b *ChannelBus) work() {
	defer b.wg.Done()
	for e := range b.queue {
		// deliver logs failures itself
		_ = b.dispatch.deliver(context.Background(), e)
	}
}
