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

type managerFixture struct {
	manager *session.Manager
	store   *countingStore
	bus     *recordingBus
	clock   *fakeClock
}

func newManagerFixture(cfg session.Config, opts ...session.Option) *managerFixture {
	f := &managerFixture{
		store: newCountingStore(),
		bus:   &recordingBus{},
		clock: newFakeClock(),
	}
	f.manager = session.NewManagerFromConfig(cfg, append([]session.Option{
		session.WithStore(f.store),
		session.WithEventBus(f.bus),
		session.WithClock(f.clock.Now),
	}, opts...)...)
	return f
}

func (f *managerFixture) start(t *testing.T, sctx session.Context) *session.DelegatingSession {
	t.Helper()
	h, err := f.manager.Start(context.Background(), sctx)
	require.NoError(t, err)
	require.NotNil(t, h)
	return h
}

// Starting a session yields a handle with an id and one start event.
func TestManager_Start(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(session.DefaultConfig())
	h := f.start(t, session.Context{Host: "203.0.113.7"})

	assert.NotEmpty(t, h.ID())
	assert.Equal(t, []any{session.StartPayload{SessionID: h.ID()}}, f.bus.byTopic(session.TopicStart))

	host, err := h.Host(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", host)

	idle, err := h.IdleTimeout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.DefaultConfig().IdleTimeout, idle)
}

func TestManager_Start_WithoutBusFails(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(session.DefaultConfig())
	f.manager.SetEventBus(nil)

	_, err := f.manager.Start(context.Background(), session.Context{})
	assert.ErrorIs(t, err, session.ErrSessionEvent)
}

// Unknown keys resolve to nil; stopped sessions fail validation.
func TestManager_GetSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		f := newManagerFixture(session.DefaultConfig())
		h, err := f.manager.GetSession(ctx, session.NewKey("missing"))
		require.NoError(t, err)
		assert.Nil(t, h)
		assert.False(t, f.manager.IsValid(ctx, session.NewKey("missing")))
		assert.ErrorIs(t, f.manager.CheckValid(ctx, session.NewKey("missing")), session.ErrUnknownSession)
	})

	t.Run("stopped session", func(t *testing.T) {
		t.Parallel()

		cfg := session.DefaultConfig()
		cfg.DeleteInvalidSessions = false
		f := newManagerFixture(cfg)
		h := f.start(t, session.Context{})
		require.NoError(t, h.Stop(ctx, "user-1"))

		got, err := f.manager.GetSession(ctx, h.Key())
		assert.Nil(t, got)
		assert.ErrorIs(t, err, session.ErrInvalidSession)
		assert.False(t, f.manager.IsValid(ctx, h.Key()))
	})

	t.Run("valid session", func(t *testing.T) {
		t.Parallel()

		f := newManagerFixture(session.DefaultConfig())
		h := f.start(t, session.Context{})

		got, err := f.manager.GetSession(ctx, h.Key())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, h.ID(), got.ID())
		assert.True(t, f.manager.IsValid(ctx, h.Key()))
	})
}

// Idle timeout breach expires the session, publishes once and deletes it.
func TestManager_IdleExpiration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newManagerFixture(session.DefaultConfig())
	h := f.start(t, session.Context{IdleTimeout: time.Second})
	require.NoError(t, h.SetInternalAttribute(ctx, session.IdentifiersAttributeKey, "user-1"))

	f.clock.Advance(2 * time.Second)

	assert.False(t, h.IsValid(ctx))
	assert.Equal(t,
		[]any{session.TuplePayload{Items: session.Tuple{Identifiers: "user-1", Key: h.Key()}}},
		f.bus.byTopic(session.TopicExpire))

	stored, err := f.store.Read(ctx, h.ID())
	require.NoError(t, err)
	assert.Nil(t, stored, "expired session must be removed from the store")

	// a second lookup finds nothing and publishes nothing further
	assert.ErrorIs(t, h.CheckValid(ctx), session.ErrUnknownSession)
	assert.Len(t, f.bus.byTopic(session.TopicExpire), 1)
}

// Internal attributes round-trip through the manager.
func TestManager_InternalAttributes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newManagerFixture(session.DefaultConfig())
	h := f.start(t, session.Context{})

	require.NoError(t, f.manager.SetInternalAttribute(ctx, h.Key(), "role", "admin"))

	v, err := f.manager.InternalAttribute(ctx, h.Key(), "role")
	require.NoError(t, err)
	assert.Equal(t, "admin", v)

	keys, err := f.manager.InternalAttributeKeys(ctx, h.Key())
	require.NoError(t, err)
	assert.Contains(t, keys, "role")

	attrKeys, err := h.AttributeKeys(ctx)
	require.NoError(t, err)
	assert.NotNil(t, attrKeys)
	assert.Empty(t, attrKeys)
}

func TestManager_AttributeRemoval(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newManagerFixture(session.DefaultConfig())
	h := f.start(t, session.Context{})

	require.NoError(t, h.SetAttribute(ctx, "theme", "dark"))
	require.NoError(t, h.SetAttribute(ctx, "lang", "en"))

	keys, err := h.AttributeKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"theme", "lang"}, keys)

	// nil value is a removal
	require.NoError(t, h.SetAttribute(ctx, "theme", nil))
	v, err := h.Attribute(ctx, "theme")
	require.NoError(t, err)
	assert.Nil(t, v)

	removed, err := h.RemoveAttribute(ctx, "lang")
	require.NoError(t, err)
	assert.Equal(t, "en", removed)

	removed, err = h.RemoveAttribute(ctx, "never-set")
	require.NoError(t, err)
	assert.Nil(t, removed)

	removed, err = h.RemoveInternalAttribute(ctx, "never-set")
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestManager_EveryMutationPersistsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newManagerFixture(session.DefaultConfig())
	h := f.start(t, session.Context{})
	require.Equal(t, int32(0), f.store.updates.Load())

	mutations := []struct {
		name string
		fn   func() error
	}{
		{"set attribute", func() error { return h.SetAttribute(ctx, "a", 1) }},
		{"set internal attribute", func() error { return h.SetInternalAttribute(ctx, "b", 2) }},
		{"set nil attribute", func() error { return h.SetAttribute(ctx, "a", nil) }},
		{"remove absent attribute", func() error { _, err := h.RemoveAttribute(ctx, "zzz"); return err }},
		{"remove internal attribute", func() error { _, err := h.RemoveInternalAttribute(ctx, "b"); return err }},
		{"set idle timeout", func() error { return h.SetIdleTimeout(ctx, time.Hour) }},
		{"set absolute timeout", func() error { return h.SetAbsoluteTimeout(ctx, 2*time.Hour) }},
		{"touch", func() error { return h.Touch(ctx) }},
	}

	for i, m := range mutations {
		require.NoError(t, m.fn(), m.name)
		assert.Equal(t, int32(i+1), f.store.updates.Load(), "%s should persist exactly once", m.name)
	}

	idle, err := h.IdleTimeout(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, idle)

	absolute, err := h.AbsoluteTimeout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, absolute)

	assert.Equal(t, int32(len(mutations)), f.store.updates.Load(), "reads must not persist")
}

func TestManager_Touch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newManagerFixture(session.DefaultConfig())
	h := f.start(t, session.Context{IdleTimeout: time.Minute})

	f.clock.Advance(50 * time.Second)
	require.NoError(t, h.Touch(ctx))
	f.clock.Advance(50 * time.Second)

	assert.True(t, h.IsValid(ctx), "touch must reset the idle clock")

	last, err := h.LastAccessTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(-50*time.Second), last)

	started, err := h.StartTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(-100*time.Second), started)
}

func TestManager_Stop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stops, notifies and deletes", func(t *testing.T) {
		t.Parallel()

		f := newManagerFixture(session.DefaultConfig())
		h := f.start(t, session.Context{})

		require.NoError(t, f.manager.Stop(ctx, h.Key(), "user-1"))

		assert.Equal(t,
			[]any{session.TuplePayload{Items: session.Tuple{Identifiers: "user-1", Key: h.Key()}}},
			f.bus.byTopic(session.TopicStop))
		assert.Equal(t, int32(1), f.store.deletes.Load())
		assert.Equal(t, 0, f.store.Len())
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		f := newManagerFixture(session.DefaultConfig())
		err := f.manager.Stop(ctx, session.NewKey("missing"), nil)
		assert.ErrorIs(t, err, session.ErrUnknownSession)
		assert.Empty(t, f.bus.byTopic(session.TopicStop))
	})

	t.Run("teardown runs once even when persisting fails", func(t *testing.T) {
		t.Parallel()

		f := newManagerFixture(session.DefaultConfig())
		h := f.start(t, session.Context{})
		errWrite := errors.New("write failed")
		f.store.failUpdates(errWrite)

		err := f.manager.Stop(ctx, h.Key(), "user-1")
		assert.ErrorIs(t, err, errWrite)

		assert.Equal(t, int32(1), f.store.updates.Load(), "on stop ran once")
		assert.Len(t, f.bus.byTopic(session.TopicStop), 1, "notify ran once")
		assert.Equal(t, int32(1), f.store.deletes.Load(), "after stopped ran once")
	})

	t.Run("kept stopped session cannot be stopped again", func(t *testing.T) {
		t.Parallel()

		cfg := session.DefaultConfig()
		cfg.DeleteInvalidSessions = false
		f := newManagerFixture(cfg)
		h := f.start(t, session.Context{})
		require.NoError(t, h.Stop(ctx, nil))

		err := h.Stop(ctx, nil)
		assert.ErrorIs(t, err, session.ErrInvalidSession)
		assert.ErrorIs(t, err, session.ErrStoppedSession)
	})
}

func TestManager_DelegatingSessionSeesLatestState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newManagerFixture(session.DefaultConfig())
	h := f.start(t, session.Context{})

	other, err := f.manager.GetSession(ctx, h.Key())
	require.NoError(t, err)

	require.NoError(t, other.SetAttribute(ctx, "cart", "3 items"))

	v, err := h.Attribute(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "3 items", v)
}

func TestManager_WithCacheHandler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := session.NewLRUCacheHandler(8)
	f := newManagerFixture(session.DefaultConfig(), session.WithCacheHandler(cache))
	h := f.start(t, session.Context{})

	assert.Equal(t, 1, cache.Len())

	readsBefore := f.store.reads.Load()
	_, err := h.Host(ctx)
	require.NoError(t, err)
	assert.Equal(t, readsBefore, f.store.reads.Load(), "lookups should be served from cache")

	require.NoError(t, h.Stop(ctx, nil))
	assert.Equal(t, 0, cache.Len())
}

func TestManager_DefaultsToMemoryStoreAndEventBus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := session.NewManager()
	require.NotNil(t, m.EventBus())

	h, err := m.Start(ctx, session.Context{})
	require.NoError(t, err)
	assert.True(t, h.IsValid(ctx))

	result, err := m.ValidateSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Valid)
}
