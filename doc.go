// Package sessionkit is a server-side session management library: session
// lifecycle and timeout validation, cached persistence on Redis, PostgreSQL
// or MongoDB, lifecycle events, background validation sweeps, and
// Prometheus metrics.
//
// This file indexes the packages of the module. Each entry lists the import
// path and a short description.
//
// # Core Packages
//
//	github.com/dmitrymomot/sessionkit/core/session - Session entity, Manager, Handler, caching store, validation scheduler
//	github.com/dmitrymomot/sessionkit/core/event   - In-process event bus (synchronous and channel based) with typed handlers
//	github.com/dmitrymomot/sessionkit/core/cache   - Thread-safe generic LRU cache
//	github.com/dmitrymomot/sessionkit/core/config  - Environment and .env configuration loading
//	github.com/dmitrymomot/sessionkit/core/logger  - slog construction and attribute helpers
//	github.com/dmitrymomot/sessionkit/core/health  - Liveness and readiness probe composition
//
// # Integration Packages
//
//	github.com/dmitrymomot/sessionkit/integration/database/redis          - go-redis client with retry and health check
//	github.com/dmitrymomot/sessionkit/integration/database/pg             - pgx pool, goose migrations, transactions in context
//	github.com/dmitrymomot/sessionkit/integration/database/mongo          - MongoDB client with retry and health check
//	github.com/dmitrymomot/sessionkit/integration/sessionstore/redisstore - Redis session store and shared cache
//	github.com/dmitrymomot/sessionkit/integration/sessionstore/pgstore    - PostgreSQL session store with embedded schema
//	github.com/dmitrymomot/sessionkit/integration/sessionstore/mongostore - MongoDB session store
//	github.com/dmitrymomot/sessionkit/integration/metrics                 - Prometheus collector for events and sweeps
//
// # Putting It Together
//
//	client, err := redis.Connect(ctx, redisCfg)
//	if err != nil {
//		return err
//	}
//
//	bus := event.NewBus(event.WithBusLogger(log))
//	collector, err := metrics.NewCollector("app", prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	if err := collector.Subscribe(bus); err != nil {
//		return err
//	}
//
//	mgr := session.NewManagerFromConfig(sessionCfg,
//		session.WithStore(redisstore.New(client)),
//		session.WithCacheHandler(session.NewLRUCacheHandler(10_000)),
//		session.WithEventBus(bus),
//		session.WithLogger(log),
//	)
//
//	sched, err := session.NewValidationSchedulerFromConfig(sessionCfg, mgr,
//		session.WithSweepHook(collector.ObserveSweep),
//		session.WithSchedulerLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(sched.Run(ctx))
//	return g.Wait()
package sessionkit
