// Package session implements server-side session management: session
// lifecycle, timeout validation, cached persistence, and lifecycle event
// notifications.
//
// # Core Components
//
//   - Session: the entity. Tracks start and last-access timestamps, idle and
//     absolute timeouts, the originating host, and two attribute maps (one
//     for applications, one reserved for the library).
//   - Store and CachingStore: persistence. CachingStore puts a CacheHandler in
//     front of any Store and keeps the two coherent.
//   - EventHandler: publishes TopicStart, TopicStop and TopicExpire events to
//     an EventBus such as *event.Bus.
//   - Handler: the lifecycle policy. Validates sessions on access, runs the
//     stop and expiration cascades, and deletes invalid sessions.
//   - Manager: the public API. Every mutation goes through exactly one
//     persistence call.
//   - DelegatingSession: a handle bound to a session key. It holds no state
//     and forwards every call to the Manager.
//   - ValidationScheduler: sweeps all active sessions in the background so
//     abandoned sessions expire without a request touching them.
//
// # Basic Usage
//
//	mgr := session.NewManager(
//		session.WithStore(store),
//		session.WithEventBus(bus),
//		session.WithCacheHandler(session.NewLRUCacheHandler(10_000)),
//	)
//
//	s, err := mgr.Start(ctx, session.Context{Host: r.RemoteAddr})
//	if err != nil {
//		return err
//	}
//
//	_ = s.SetAttribute(ctx, "theme", "dark")
//
//	// Later, with only the id from a cookie:
//	sess, err := mgr.GetSession(ctx, session.NewKey(id))
//	if errors.Is(err, session.ErrExpiredSession) {
//		// ask the user to log in again
//	}
//
// # Configuration
//
// Config is loaded from the environment:
//
//	cfg, err := session.LoadConfig()
//	mgr := session.NewManagerFromConfig(cfg, session.WithStore(store))
//
// Relevant variables: SESSION_IDLE_TIMEOUT, SESSION_ABSOLUTE_TIMEOUT,
// SESSION_DELETE_INVALID, SESSION_AUTO_TOUCH and the SESSION_VALIDATION_*
// family.
//
// # Validation
//
// A session is checked every time it is read through the Manager. Stopped
// sessions fail with ErrStoppedSession, timed out sessions with
// ErrExpiredSession. Both also match ErrInvalidSession. On failure the Handler
// persists the final state, publishes the matching event, and deletes the
// session when Config.DeleteInvalidSessions is set.
//
// Sessions nobody reads are covered by the scheduler:
//
//	sched, err := session.NewValidationSchedulerFromConfig(cfg, mgr)
//	g.Go(sched.Run(ctx))
//
// # Error Handling
//
// All errors are sentinels and may be joined. Check them with errors.Is:
//
//	switch {
//	case errors.Is(err, session.ErrUnknownSession):
//	case errors.Is(err, session.ErrExpiredSession):
//	case errors.Is(err, session.ErrStoppedSession):
//	}
package session
