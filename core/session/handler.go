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

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// Handler orchestrates retrieval, validation and the expiration and
// invalidation cascades. Every persisted mutation goes through OnChange.
type Handler struct {
	mu           sync.RWMutex
	store        Store
	cacheHandler CacheHandler

	events                *EventHandler
	deleteInvalidSessions bool
	autoTouch             bool
	sweepConcurrency      int
	clock                 func() time.Time
	logger                *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerStore sets the session store, usually a *CachingStore.
func WithHandlerStore(store Store) HandlerOption {
	return func(h *Handler) {
		h.store = store
	}
}

// WithHandlerCache sets the cache handler injected into a cache-aware store.
func WithHandlerCache(cache CacheHandler) HandlerOption {
	return func(h *Handler) {
		h.cacheHandler = cache
	}
}

// WithEventHandler sets the lifecycle event publisher.
func WithEventHandler(events *EventHandler) HandlerOption {
	return func(h *Handler) {
		if events != nil {
			h.events = events
		}
	}
}

// WithDeleteInvalidSessions controls whether stopped and expired sessions
// are removed from the store. Enabled by default.
func WithDeleteInvalidSessions(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.deleteInvalidSessions = enabled
	}
}

// WithAutoTouch makes every successful lookup advance the last access time.
func WithAutoTouch(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.autoTouch = enabled
	}
}

// WithSweepConcurrency bounds how many sessions a sweep validates at once.
func WithSweepConcurrency(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.sweepConcurrency = n
		}
	}
}

// WithHandlerClock overrides time.Now.
func WithHandlerClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHandlerLogger configures structured logging.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a handler. Without a store every storage operation
// fails with ErrIllegalState.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		events:                NewEventHandler(nil),
		deleteInvalidSessions: true,
		sweepConcurrency:      1,
		clock:                 time.Now,
		logger:                slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.cacheHandler != nil {
		h.ApplyCacheHandlerToStore()
	}

	return h
}

// Store returns the configured session store, or nil.
func (h *Handler) Store() Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store
}

// SetStore replaces the session store and re-applies the cache handler,
// including a nil one.
func (h *Handler) SetStore(store Store) {
	h.mu.Lock()
	h.store = store
	h.mu.Unlock()

	h.ApplyCacheHandlerToStore()
}

// CacheHandler returns the configured cache handler, or nil.
func (h *Handler) CacheHandler() CacheHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cacheHandler
}

// SetCacheHandler replaces the cache handler and re-applies it to the store.
// Passing nil disables caching in a cache-aware store.
func (h *Handler) SetCacheHandler(cache CacheHandler) {
	h.mu.Lock()
	h.cacheHandler = cache
	h.mu.Unlock()

	h.ApplyCacheHandlerToStore()
}

// EventHandler returns the lifecycle event publisher.
func (h *Handler) EventHandler() *EventHandler {
	return h.events
}

// SetEventBus passes bus through to the event handler.
func (h *Handler) SetEventBus(bus EventBus) {
	h.events.SetEventBus(bus)
}

// ApplyCacheHandlerToStore injects the cache handler, nil included, into
// the store when the store accepts one. It does nothing without a store or
// when the store has no cache slot.
func (h *Handler) ApplyCacheHandlerToStore() {
	h.mu.RLock()
	store, cache := h.store, h.cacheHandler
	h.mu.RUnlock()

	if store == nil {
		return
	}
	if aware, ok := store.(CacheAware); ok {
		aware.SetCacheHandler(cache)
	}
}

// DeleteInvalidSessions reports the delete-on-invalid policy.
func (h *Handler) DeleteInvalidSessions() bool { return h.deleteInvalidSessions }

// AutoTouch reports whether lookups touch the session.
func (h *Handler) AutoTouch() bool { return h.autoTouch }

func (h *Handler) now() time.Time { return h.clock() }

func (h *Handler) sessionStore() (Store, error) {
	store := h.Store()
	if store == nil {
		return nil, fmt.Errorf("%w: no session store configured", ErrIllegalState)
	}
	return store, nil
}

// CreateSession persists s and returns the id the store assigned.
func (h *Handler) CreateSession(ctx context.Context, s *Session) (string, error) {
	store, err := h.sessionStore()
	if err != nil {
		return "", err
	}

	id, err := store.Create(ctx, s)
	if err != nil {
		return "", errors.Join(ErrSessionCreation, err)
	}
	if id == "" {
		return "", errors.Join(ErrSessionCreation, errors.New("store returned no session id"))
	}

	h.logger.DebugContext(ctx, "session created", logger.SessionID(id))
	return id, nil
}

// Delete removes s from the store.
func (h *Handler) Delete(ctx context.Context, s *Session) error {
	store, err := h.sessionStore()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, s); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", s.ID(), err)
	}
	return nil
}

// DoGetSession resolves key to a validated session. It returns nil and no
// error when the key has no id or the store has no such session.
func (h *Handler) DoGetSession(ctx context.Context, key Key) (*Session, error) {
	if key.SessionID == "" {
		return nil, nil
	}

	store, err := h.sessionStore()
	if err != nil {
		return nil, err
	}

	s, err := store.Read(ctx, key.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", key.SessionID, err)
	}
	if s == nil {
		h.logger.DebugContext(ctx, "session not found", logger.SessionID(key.SessionID))
		return nil, nil
	}

	if err := h.Validate(ctx, s, key); err != nil {
		return nil, err
	}

	if h.autoTouch {
		s.Touch(h.now())
		if err := h.OnChange(ctx, s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Validate runs the session's self-check. An expired session goes through
// the expiration cascade; any other invalid state through the invalidation
// cascade. The validation failure is always returned, joined with any
// cascade failure.
func (h *Handler) Validate(ctx context.Context, s *Session, key Key) error {
	v := s.Validate(h.now())

	switch v.Kind {
	case ValidationValid:
		return nil

	case ValidationExpired:
		verr := v.Err()
		h.logger.DebugContext(ctx, "session expired", logger.SessionID(s.ID()))
		return errors.Join(verr, h.OnExpiration(ctx, s, verr, &key))

	default:
		verr := v.Err()
		h.logger.DebugContext(ctx, "session invalid",
			logger.SessionID(s.ID()),
			logger.Error(v.Reason))
		return errors.Join(verr, h.OnInvalidation(ctx, s, v, key))
	}
}

// OnStop records the stop time as the last access and persists the session.
func (h *Handler) OnStop(ctx context.Context, s *Session) error {
	s.alignLastAccessToStop()
	return h.OnChange(ctx, s)
}

// AfterStopped deletes s when the delete-invalid-sessions policy is enabled.
func (h *Handler) AfterStopped(ctx context.Context, s *Session) error {
	if h.deleteInvalidSessions {
		return h.Delete(ctx, s)
	}
	return nil
}

// OnExpiration marks s expired and persists it. cause and key must be given
// together: with both, subscribers are notified and AfterExpired runs; with
// neither, only the state change is persisted.
func (h *Handler) OnExpiration(ctx context.Context, s *Session, cause error, key *Key) error {
	if (cause == nil) != (key == nil) {
		return fmt.Errorf("%w: expiration cause and session key must be supplied together", ErrInvalidArgument)
	}

	s.Expire(h.now())
	if err := h.OnChange(ctx, s); err != nil {
		return err
	}

	if cause == nil {
		return nil
	}

	notifyErr := h.events.NotifyExpiration(ctx, Tuple{Identifiers: s.Identifiers(), Key: *key})
	return errors.Join(notifyErr, h.AfterExpired(ctx, s))
}

// AfterExpired deletes s when the delete-invalid-sessions policy is enabled.
func (h *Handler) AfterExpired(ctx context.Context, s *Session) error {
	if h.deleteInvalidSessions {
		return h.Delete(ctx, s)
	}
	return nil
}

// OnInvalidation dispatches on the validation result: expirations go to
// OnExpiration, everything else runs the stop cascade.
func (h *Handler) OnInvalidation(ctx context.Context, s *Session, v Validation, key Key) error {
	if v.Kind == ValidationExpired {
		return h.OnExpiration(ctx, s, v.Err(), &key)
	}

	stopErr := h.OnStop(ctx, s)
	notifyErr := h.events.NotifyStop(ctx, Tuple{Identifiers: s.Identifiers(), Key: key})
	return errors.Join(stopErr, notifyErr, h.AfterStopped(ctx, s))
}

// OnChange persists s. It is the only path by which mutations reach the store.
// A session deleted from the store in the meantime is not recreated.
func (h *Handler) OnChange(ctx context.Context, s *Session) error {
	store, err := h.sessionStore()
	if err != nil {
		return err
	}
	err = store.Update(ctx, s)
	if errors.Is(err, ErrSessionNotFound) {
		h.logger.DebugContext(ctx, "update skipped, session no longer stored", logger.SessionID(s.ID()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", s.ID(), err)
	}
	return nil
}

// SweepResult summarizes one validation sweep.
type SweepResult struct {
	Checked     int // sessions read and validated
	Valid       int
	Expired     int
	Invalidated int
	Failed      int // sessions whose read or cascade failed for reasons other than invalidity
}

// ValidateSessions validates every active session the store can list, using
// the same Validate path as request traffic. Sessions are validated
// concurrently up to the configured sweep concurrency.
func (h *Handler) ValidateSessions(ctx context.Context) (SweepResult, error) {
	store, err := h.sessionStore()
	if err != nil {
		return SweepResult{}, err
	}

	lister, ok := store.(Lister)
	if !ok {
		return SweepResult{}, fmt.Errorf("%w: session store %T cannot list active sessions", ErrIllegalState, store)
	}

	ids, err := lister.ActiveSessionIDs(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list active sessions: %w", err)
	}

	var (
		checked, valid, expiredCount, invalidated atomic.Int64
		failuresMu                                sync.Mutex
		failures                                  []error
	)

	var g errgroup.Group
	g.SetLimit(h.sweepConcurrency)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s, err := store.Read(ctx, id)
			if err != nil {
				failuresMu.Lock()
				failures = append(failures, fmt.Errorf("read session %s: %w", id, err))
				failuresMu.Unlock()
				return nil
			}
			if s == nil {
				return nil
			}

			checked.Add(1)
			err = h.Validate(ctx, s, NewKey(id))
			switch {
			case err == nil:
				valid.Add(1)
			case errors.Is(err, ErrExpiredSession):
				expiredCount.Add(1)
			case errors.Is(err, ErrInvalidSession):
				invalidated.Add(1)
			}
			if err != nil && !isCascadeClean(err) {
				failuresMu.Lock()
				failures = append(failures, err)
				failuresMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	result := SweepResult{
		Checked:     int(checked.Load()),
		Valid:       int(valid.Load()),
		Expired:     int(expiredCount.Load()),
		Invalidated: int(invalidated.Load()),
		Failed:      len(failures),
	}

	h.logger.InfoContext(ctx, "session validation sweep completed",
		logger.Count("checked", result.Checked),
		logger.Count("expired", result.Expired),
		logger.Count("invalidated", result.Invalidated),
		logger.Count("failed", result.Failed))

	return result, errors.Join(append(failures, ctx.Err())...)
}

// isCascadeClean reports whether err carries only validation kinds, meaning
// the cascade it triggered completed without storage or publish failures.
func isCascadeClean(err error) bool {
	var kinds []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		kinds = flatten(joined.Unwrap())
	} else {
		kinds = []error{err}
	}
	for _, k := range kinds {
		if k != ErrInvalidSession && k != ErrExpiredSession && k != ErrStoppedSession {
			return false
		}
	}
	return true
}

func flatten(errs []error) []error {
	var out []error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			out = append(out, flatten(joined.Unwrap())...)
			continue
		}
		out = append(out, e)
	}
	return out
}
