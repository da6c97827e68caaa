package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// Middleware wraps a Handler to add cross-cutting behavior.
type Middleware func(Handler) Handler

type decoratedHandler struct {
	name string
	fn   func(ctx context.Context, payload any) error
}

func (h *decoratedHandler) Name() string { return h.name }

func (h *decoratedHandler) Handle(ctx context.Context, payload any) error {
	return h.fn(ctx, payload)
}

// Decorate applies mw to h left to right; the first middleware wraps innermost.
//
// Example:
//
//	h := event.Decorate(
//	    event.NewHandlerFunc(notifyWebhook),
//	    event.Retry(3, 100*time.Millisecond, 5*time.Second),
//	    event.Timeout(10*time.Second),
//	)
func Decorate(h Handler, mw ...Middleware) Handler {
	for _, m := range mw {
		h = m(h)
	}
	return h
}

// WithRetry retries h with exponential backoff, at most maxRetries extra times.
func WithRetry(h Handler, maxRetries int, initialDelay, maxDelay time.Duration) Handler {
	return &decoratedHandler{
		name: h.Name(),
		fn: func(ctx context.Context, payload any) error {
			eb := backoff.NewExponentialBackOff()
			eb.InitialInterval = initialDelay
			eb.MaxInterval = maxDelay
			eb.MaxElapsedTime = 0

			retries := uint64(max(maxRetries, 0))
			policy := backoff.WithContext(backoff.WithMaxRetries(eb, retries), ctx)

			if err := backoff.Retry(func() error {
				return h.Handle(ctx, payload)
			}, policy); err != nil {
				return fmt.Errorf("failed after %d retries: %w", maxRetries, err)
			}
			return nil
		},
	}
}

// Retry returns a Middleware form of WithRetry.
func Retry(maxRetries int, initialDelay, maxDelay time.Duration) Middleware {
	return func(h Handler) Handler {
		return WithRetry(h, maxRetries, initialDelay, maxDelay)
	}
}

// WithTimeout cancels the handler's context after timeout.
func WithTimeout(h Handler, timeout time.Duration) Handler {
	return &decoratedHandler{
		name: h.Name(),
		fn: func(ctx context.Context, payload any) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- safeHandle(ctx, h, payload)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return fmt.Errorf("handler timeout after %s: %w", timeout, ctx.Err())
			}
		},
	}
}

// Timeout returns a Middleware form of WithTimeout.
func Timeout(timeout time.Duration) Middleware {
	return func(h Handler) Handler {
		return WithTimeout(h, timeout)
	}
}

// LoggingMiddleware logs each handler run with its duration and error.
func LoggingMiddleware(l *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return &decoratedHandler{
			name: next.Name(),
			fn: func(ctx context.Context, payload any) error {
				start := time.Now()
				err := next.Handle(ctx, payload)

				attrs := []any{
					slog.String("handler", next.Name()),
					logger.Topic(EventTopic(ctx)),
					logger.Elapsed(start),
				}
				if err != nil {
					l.ErrorContext(ctx, "event handler failed", append(attrs, logger.Error(err))...)
				} else {
					l.DebugContext(ctx, "event handler completed", attrs...)
				}
				return err
			},
		}
	}
}
