package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/core/event"
	"github.com/dmitrymomot/sessionkit/core/logger"
)

// Manager is the public façade over the Handler. Callers only ever receive
// *DelegatingSession handles, which re-enter the Manager for every call.
type Manager struct {
	handler *Handler
	factory Factory
	clock   func() time.Time
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	config  Config
	store   Store
	cache   CacheHandler
	bus     EventBus
	factory Factory
	clock   func() time.Time
	logger  *slog.Logger
}

// WithStore sets the backing store. It is wrapped in a CachingStore.
func WithStore(store Store) Option {
	return func(o *managerOptions) {
		o.store = store
	}
}

// WithCacheHandler sets the cache placed in front of the backing store.
func WithCacheHandler(cache CacheHandler) Option {
	return func(o *managerOptions) {
		o.cache = cache
	}
}

// WithEventBus sets the bus lifecycle events are published to.
// Defaults to an in-process event.Bus with no subscribers.
func WithEventBus(bus EventBus) Option {
	return func(o *managerOptions) {
		o.bus = bus
	}
}

// WithFactory overrides the session factory.
func WithFactory(f Factory) Option {
	return func(o *managerOptions) {
		o.factory = f
	}
}

// WithClock overrides time.Now for the manager, handler and default factory.
func WithClock(clock func() time.Time) Option {
	return func(o *managerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewManager creates a manager with DefaultConfig.
// Without WithStore sessions live in an in-memory store.
func NewManager(opts ...Option) *Manager {
	return NewManagerFromConfig(DefaultConfig(), opts...)
}

// NewManagerFromConfig creates a manager from cfg. Options override config values.
func NewManagerFromConfig(cfg Config, opts ...Option) *Manager {
	o := &managerOptions{
		config: cfg,
		clock:  time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil {
		o.store = NewMemoryStore()
	}
	if o.bus == nil {
		o.bus = event.NewBus(event.WithBusLogger(o.logger))
	}
	if o.factory == nil {
		o.factory = NewFactory(o.config, o.clock)
	}

	log := o.logger.With(logger.Component("session"))

	h := NewHandler(
		WithHandlerStore(NewCachingStore(o.store, nil)),
		WithHandlerCache(o.cache),
		WithEventHandler(NewEventHandler(o.bus)),
		WithDeleteInvalidSessions(o.config.DeleteInvalidSessions),
		WithAutoTouch(o.config.AutoTouch),
		WithSweepConcurrency(o.config.ValidationConcurrency),
		WithHandlerClock(o.clock),
		WithHandlerLogger(log),
	)

	return &Manager{
		handler: h,
		factory: o.factory,
		clock:   o.clock,
		logger:  log,
	}
}

// Handler exposes the underlying handler.
func (m *Manager) Handler() *Handler { return m.handler }

// SetEventBus passes bus through to the handler's event publisher.
func (m *Manager) SetEventBus(bus EventBus) { m.handler.SetEventBus(bus) }

// EventBus returns the bus lifecycle events are published to.
func (m *Manager) EventBus() EventBus { return m.handler.EventHandler().EventBus() }

// ValidateSessions runs one validation sweep over all active sessions.
func (m *Manager) ValidateSessions(ctx context.Context) (SweepResult, error) {
	return m.handler.ValidateSessions(ctx)
}

// Start creates and persists a new session, publishes TopicStart and returns
// a handle bound to the new id.
func (m *Manager) Start(ctx context.Context, sctx Context) (*DelegatingSession, error) {
	s, err := m.factory.CreateSession(sctx)
	if err != nil {
		return nil, errors.Join(ErrSessionCreation, err)
	}

	id, err := m.handler.CreateSession(ctx, s)
	if err != nil {
		return nil, err
	}

	if err := m.handler.EventHandler().NotifyStart(ctx, s); err != nil {
		return nil, err
	}

	m.logger.DebugContext(ctx, "session started", logger.SessionID(id))
	return newDelegatingSession(m, NewKey(id)), nil
}

// Stop stops the session. The stop teardown runs even when the session
// refuses to stop; the refusal is returned afterwards. lookupRequiredSession
// only returns active sessions, so a refusal is not expected here.
func (m *Manager) Stop(ctx context.Context, key Key, identifiers any) error {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return err
	}

	stopErr := s.Stop(m.clock())
	if stopErr != nil {
		m.logger.DebugContext(ctx, "session refused to stop",
			logger.SessionID(key.SessionID),
			logger.Error(stopErr))
	}

	onStopErr := m.handler.OnStop(ctx, s)
	notifyErr := m.handler.EventHandler().NotifyStop(ctx, Tuple{Identifiers: identifiers, Key: key})
	afterErr := m.handler.AfterStopped(ctx, s)

	return errors.Join(stopErr, onStopErr, notifyErr, afterErr)
}

// GetSession returns a handle for key, or nil when no session exists.
func (m *Manager) GetSession(ctx context.Context, key Key) (*DelegatingSession, error) {
	s, err := m.handler.DoGetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return newDelegatingSession(m, key), nil
}

// IsValid reports whether key resolves to a valid session. Invalid, expired,
// stopped and unknown sessions report false; other failures are logged.
func (m *Manager) IsValid(ctx context.Context, key Key) bool {
	err := m.CheckValid(ctx, key)
	if err == nil {
		return true
	}
	if !isSessionKindError(err) {
		m.logger.WarnContext(ctx, "session validity check failed",
			logger.SessionID(key.SessionID),
			logger.Error(err))
	}
	return false
}

// CheckValid fails when key does not resolve to a valid session.
func (m *Manager) CheckValid(ctx context.Context, key Key) error {
	_, err := m.lookupRequiredSession(ctx, key)
	return err
}

func (m *Manager) StartTimestamp(ctx context.Context, key Key) (time.Time, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return s.StartTimestamp(), nil
}

func (m *Manager) LastAccessTime(ctx context.Context, key Key) (time.Time, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return s.LastAccessTime(), nil
}

func (m *Manager) AbsoluteTimeout(ctx context.Context, key Key) (time.Duration, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return 0, err
	}
	return s.AbsoluteTimeout(), nil
}

func (m *Manager) IdleTimeout(ctx context.Context, key Key) (time.Duration, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return 0, err
	}
	return s.IdleTimeout(), nil
}

func (m *Manager) Host(ctx context.Context, key Key) (string, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return "", err
	}
	return s.Host(), nil
}

func (m *Manager) SetIdleTimeout(ctx context.Context, key Key, d time.Duration) error {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return err
	}
	s.SetIdleTimeout(d)
	return m.handler.OnChange(ctx, s)
}

func (m *Manager) SetAbsoluteTimeout(ctx context.Context, key Key, d time.Duration) error {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return err
	}
	s.SetAbsoluteTimeout(d)
	return m.handler.OnChange(ctx, s)
}

// Touch resets the idle clock of the session.
func (m *Manager) Touch(ctx context.Context, key Key) error {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return err
	}
	s.Touch(m.clock())
	return m.handler.OnChange(ctx, s)
}

// InternalAttributeKeys returns a snapshot of internal attribute keys in
// insertion order. It is empty, never nil, when none are set.
func (m *Manager) InternalAttributeKeys(ctx context.Context, key Key) ([]string, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.InternalAttributeKeys(), nil
}

// AttributeKeys returns a snapshot of attribute keys in insertion order.
func (m *Manager) AttributeKeys(ctx context.Context, key Key) ([]string, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.AttributeKeys(), nil
}

func (m *Manager) InternalAttribute(ctx context.Context, key Key, name string) (any, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return nil, err
	}
	v, _ := s.InternalAttribute(name)
	return v, nil
}

func (m *Manager) Attribute(ctx context.Context, key Key, name string) (any, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return nil, err
	}
	v, _ := s.Attribute(name)
	return v, nil
}

// SetInternalAttribute stores value under name. A nil value removes the attribute.
func (m *Manager) SetInternalAttribute(ctx context.Context, key Key, name string, value any) error {
	if value == nil {
		_, err := m.RemoveInternalAttribute(ctx, key, name)
		return err
	}
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return err
	}
	s.SetInternalAttribute(name, value)
	return m.handler.OnChange(ctx, s)
}

// SetAttribute stores value under name. A nil value removes the attribute.
func (m *Manager) SetAttribute(ctx context.Context, key Key, name string, value any) error {
	if value == nil {
		_, err := m.RemoveAttribute(ctx, key, name)
		return err
	}
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return err
	}
	s.SetAttribute(name, value)
	return m.handler.OnChange(ctx, s)
}

// RemoveInternalAttribute removes name and returns its previous value, or nil.
// The session is persisted even when name was absent.
func (m *Manager) RemoveInternalAttribute(ctx context.Context, key Key, name string) (any, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return nil, err
	}
	removed := s.RemoveInternalAttribute(name)
	if err := m.handler.OnChange(ctx, s); err != nil {
		return nil, err
	}
	return removed, nil
}

// RemoveAttribute removes name and returns its previous value, or nil.
// The session is persisted even when name was absent.
func (m *Manager) RemoveAttribute(ctx context.Context, key Key, name string) (any, error) {
	s, err := m.lookupRequiredSession(ctx, key)
	if err != nil {
		return nil, err
	}
	removed := s.RemoveAttribute(name)
	if err := m.handler.OnChange(ctx, s); err != nil {
		return nil, err
	}
	return removed, nil
}

func (m *Manager) lookupRequiredSession(ctx context.Context, key Key) (*Session, error) {
	s, err := m.handler.DoGetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, key.SessionID)
	}
	return s, nil
}

func isSessionKindError(err error) bool {
	return errors.Is(err, ErrInvalidSession) ||
		errors.Is(err, ErrExpiredSession) ||
		errors.Is(err, ErrStoppedSession) ||
		errors.Is(err, ErrUnknownSession)
}
