package session

import (
	"log/slog"
	"time"
)

// SweepHook observes every completed validation sweep.
type SweepHook func(result SweepResult, elapsed time.Duration, err error)

// SchedulerOption is a functional option for configuring a ValidationScheduler.
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	interval        time.Duration
	shutdownTimeout time.Duration
	disabled        bool
	logger          *slog.Logger
	hooks           []SweepHook
}

// WithInterval sets the time between sweeps.
func WithInterval(d time.Duration) SchedulerOption {
	return func(o *schedulerOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-flight sweep.
func WithShutdownTimeout(d time.Duration) SchedulerOption {
	return func(o *schedulerOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithSweepHook registers fn to run after every sweep. Hooks run on the
// scheduler goroutine and should return quickly.
func WithSweepHook(fn SweepHook) SchedulerOption {
	return func(o *schedulerOptions) {
		if fn != nil {
			o.hooks = append(o.hooks, fn)
		}
	}
}

// WithSchedulerLogger configures structured logging for scheduler operations.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func withDisabled(disabled bool) SchedulerOption {
	return func(o *schedulerOptions) {
		o.disabled = disabled
	}
}
