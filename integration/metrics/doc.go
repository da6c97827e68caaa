// Package metrics exports session lifecycle and validation sweep metrics to
// Prometheus.
//
//	collector, err := metrics.NewCollector("app", prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	if err := collector.Subscribe(bus); err != nil {
//		return err
//	}
//
//	sched, err := session.NewValidationSchedulerFromConfig(cfg, mgr,
//		session.WithSweepHook(collector.ObserveSweep))
//
// Exported series, under the given namespace:
//
//   - session_events_total{event}: start, stop and expire events
//   - session_validation_sweeps_total{result}: success or failure
//   - session_validation_sweep_duration_seconds
//   - session_validation_sessions_total{outcome}: valid, expired, invalidated, failed
package metrics
