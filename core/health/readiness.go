package health

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// ErrNotReady is joined with the failures of a readiness check.
var ErrNotReady = errors.New("service is not ready")

// Check reports the health of one dependency.
type Check func(context.Context) error

// Readiness combines checks into one. All checks run concurrently and every
// failure is logged and returned, joined with ErrNotReady.
//
// Example:
//
//	ready := health.Readiness(log,
//		redis.Healthcheck(client),
//		pg.Healthcheck(pool),
//		scheduler.Healthcheck,
//	)
func Readiness(log *slog.Logger, checks ...func(context.Context) error) Check {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx context.Context) error {
		errs := make([]error, len(checks))

		var g errgroup.Group
		for i, check := range checks {
			g.Go(func() error {
				errs[i] = check(ctx)
				return nil
			})
		}
		_ = g.Wait()

		if err := errors.Join(errs...); err != nil {
			log.ErrorContext(ctx, "readiness check failed",
				logger.Component("health"),
				logger.Error(err))
			return errors.Join(ErrNotReady, err)
		}
		return nil
	}
}

// Liveness always succeeds. It exists so probes can be wired uniformly.
func Liveness(context.Context) error { return nil }
