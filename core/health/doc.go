// Package health composes dependency health checks into liveness and
// readiness probes.
//
// Every connector in integration/database exposes a Healthcheck function and
// session.ValidationScheduler has a Healthcheck method; Readiness runs them
// together:
//
//	ready := health.Readiness(log,
//		redis.Healthcheck(client),
//		sched.Healthcheck,
//	)
//	if err := ready(ctx); errors.Is(err, health.ErrNotReady) {
//		// report 503
//	}
package health
