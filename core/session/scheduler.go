package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// Validator runs one validation sweep. *Manager and *Handler implement it.
type Validator interface {
	ValidateSessions(ctx context.Context) (SweepResult, error)
}

// ValidationScheduler sweeps all active sessions at a fixed interval,
// independent of request traffic.
type ValidationScheduler struct {
	validator       Validator
	interval        time.Duration
	shutdownTimeout time.Duration
	disabled        bool
	hooks           []SweepHook
	logger          *slog.Logger

	// State management
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	// Observability metrics
	sweeps        atomic.Int64
	failedSweeps  atomic.Int64
	activeSweeps  atomic.Int32
	lastSweepUnix atomic.Int64
}

// SchedulerStats provides observability metrics for monitoring and debugging.
type SchedulerStats struct {
	Sweeps       int64     // Completed sweeps
	FailedSweeps int64     // Sweeps that returned an error
	ActiveSweeps int32     // Sweeps currently running
	LastSweep    time.Time // Completion time of the last sweep, zero if none
	IsRunning    bool
}

// NewValidationScheduler creates a scheduler that sweeps v every hour unless
// WithInterval says otherwise.
func NewValidationScheduler(v Validator, opts ...SchedulerOption) (*ValidationScheduler, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: validator is nil", ErrInvalidArgument)
	}

	options := &schedulerOptions{
		interval:        time.Hour,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &ValidationScheduler{
		validator:       v,
		interval:        options.interval,
		shutdownTimeout: options.shutdownTimeout,
		disabled:        options.disabled,
		hooks:           options.hooks,
		logger:          options.logger.With(logger.Component("session_validation")),
	}, nil
}

// NewValidationSchedulerFromConfig creates a scheduler from cfg.
// Additional options override config values. When cfg.ValidationEnabled is
// false, Start does nothing.
func NewValidationSchedulerFromConfig(cfg Config, v Validator, opts ...SchedulerOption) (*ValidationScheduler, error) {
	allOpts := append([]SchedulerOption{
		WithInterval(cfg.ValidationInterval),
		WithShutdownTimeout(cfg.ValidationShutdownTimeout),
		withDisabled(!cfg.ValidationEnabled),
	}, opts...)

	return NewValidationScheduler(v, allOpts...)
}

// Start launches the sweep loop in the background and returns immediately.
// Calling Start on a running scheduler has no effect. Cancelling ctx stops
// future sweeps the same way Stop does, and a later Start launches a new loop.
// Start fails with ErrSchedulerDraining while a loop abandoned by a timed out
// Stop is still finishing its sweep.
func (s *ValidationScheduler) Start(ctx context.Context) error {
	if s.disabled {
		s.logger.InfoContext(ctx, "session validation disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
			s.reapLocked()
		default:
			if s.cancel != nil {
				return nil
			}
			return ErrSchedulerDraining
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.running.Store(true)

	go s.loop(loopCtx, done)

	s.logger.InfoContext(ctx, "session validation scheduler started",
		logger.Interval(s.interval))
	return nil
}

// reapLocked releases a loop that has exited. s.mu must be held.
func (s *ValidationScheduler) reapLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel, s.done = nil, nil
}

// Stop cancels future sweeps and waits for the loop to exit, letting an
// in-flight sweep finish. No sweep starts after Stop returns. Stopping a
// stopped scheduler has no effect.
//
// On ErrShutdownTimeout the loop is left to drain; Start refuses to launch
// another one until it has exited.
func (s *ValidationScheduler) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	cancel()

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		s.mu.Lock()
		if s.done == done {
			s.done = nil
		}
		s.mu.Unlock()
		s.logger.Info("session validation scheduler stopped")
		return nil
	case <-timer.C:
		s.logger.Warn("session validation scheduler shutdown timeout exceeded",
			logger.Duration(s.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, s.shutdownTimeout)
	}
}

// Run provides errgroup compatibility: it starts the scheduler and stops it
// once ctx is cancelled.
func (s *ValidationScheduler) Run(ctx context.Context) func() error {
	return func() error {
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return s.Stop()
	}
}

// IsRunning reports whether the sweep loop is active.
func (s *ValidationScheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *ValidationScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Both cases may be ready at once; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			s.sweep(context.WithoutCancel(ctx))
		}
	}
}

func (s *ValidationScheduler) sweep(ctx context.Context) {
	s.activeSweeps.Add(1)
	defer s.activeSweeps.Add(-1)

	start := time.Now()
	result, err := s.validator.ValidateSessions(ctx)
	elapsed := time.Since(start)

	s.sweeps.Add(1)
	s.lastSweepUnix.Store(time.Now().UnixNano())

	if err != nil {
		s.failedSweeps.Add(1)
		s.logger.ErrorContext(ctx, "session validation sweep failed",
			logger.Error(err),
			logger.Duration(elapsed))
	} else {
		s.logger.DebugContext(ctx, "session validation sweep finished",
			logger.Count("checked", result.Checked),
			logger.Duration(elapsed))
	}

	for _, hook := range s.hooks {
		hook(result, elapsed, err)
	}
}

// Stats returns current scheduler statistics. Safe for concurrent use.
func (s *ValidationScheduler) Stats() SchedulerStats {
	stats := SchedulerStats{
		Sweeps:       s.sweeps.Load(),
		FailedSweeps: s.failedSweeps.Load(),
		ActiveSweeps: s.activeSweeps.Load(),
		IsRunning:    s.running.Load(),
	}
	if ts := s.lastSweepUnix.Load(); ts != 0 {
		stats.LastSweep = time.Unix(0, ts)
	}
	return stats
}

// Healthcheck returns nil while the scheduler is running or deliberately
// disabled by config.
//
// The returned error can be checked using errors.Is:
//
//	if errors.Is(err, session.ErrSchedulerNotRunning) { ... }
func (s *ValidationScheduler) Healthcheck(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	if !s.running.Load() {
		return errors.Join(ErrHealthcheckFailed, ErrSchedulerNotRunning)
	}
	return nil
}
