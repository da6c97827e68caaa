package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// Bus delivers published payloads synchronously, in the publisher's
// goroutine, to every handler subscribed to the topic.
//
// Example:
//
//	bus := event.NewBus(event.WithBusLogger(log))
//	_ = bus.Subscribe(session.TopicExpire, event.NewHandlerFunc(onExpire))
//	mgr := session.NewManager(session.WithEventBus(bus))
type Bus struct {
	mu         sync.RWMutex
	handlers   map[string][]Handler
	middleware []Middleware
	logger     *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger configures structured logging for the bus.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMiddleware wraps every handler subscribed afterwards.
// The first middleware wraps innermost.
func WithMiddleware(mw ...Middleware) BusOption {
	return func(b *Bus) {
		b.middleware = append(b.middleware, mw...)
	}
}

// NewBus creates a synchronous in-process bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[string][]Handler),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic. Handlers run in subscription order.
func (b *Bus) Subscribe(topic string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], Decorate(h, b.middleware...))
	b.logger.Debug("event handler subscribed",
		logger.Topic(topic),
		slog.String("handler", h.Name()))
	return nil
}

// HasSubscribers reports whether any handler is subscribed to topic.
func (b *Bus) HasSubscribers(topic string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic]) > 0
}

// Publish runs every handler subscribed to topic and joins their errors.
// Publishing to a topic without subscribers succeeds. Handler panics are
// recovered and reported as ErrHandlerPanic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.deliver(ctx, NewEvent(topic, payload))
}

func (b *Bus) deliver(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Topic]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.DebugContext(ctx, "no handlers for event", logger.Topic(e.Topic))
		return nil
	}

	ctx = WithEventMeta(ctx, e)

	var errs []error
	for _, h := range handlers {
		if err := safeHandle(ctx, h, e.Payload); err != nil {
			errs = append(errs, fmt.Errorf("handler %s failed: %w", h.Name(), err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		b.logger.ErrorContext(ctx, "event delivery failed",
			logger.Topic(e.Topic),
			logger.ID("event_id", e.ID),
			logger.Error(err))
		return err
	}
	return nil
}

// safeHandle converts handler panics into errors.
func safeHandle(ctx context.Context, h Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Handle(ctx, payload)
}
