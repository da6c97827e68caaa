package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/sessionkit/core/event"
	"github.com/dmitrymomot/sessionkit/core/session"
)

// Subscriber is satisfied by *event.Bus and *event.ChannelBus.
type Subscriber interface {
	Subscribe(topic string, h event.Handler) error
}

// Collector exports session lifecycle and validation sweep metrics.
type Collector struct {
	lifecycle     *prometheus.CounterVec
	sweeps        *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	swept         *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with registerer.
// If registerer is nil, prometheus.DefaultRegisterer is used.
func NewCollector(namespace string, registerer prometheus.Registerer) (*Collector, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	c := &Collector{
		lifecycle: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "events_total",
				Help:      "Session lifecycle events by type",
			},
			[]string{"event"},
		),
		sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session_validation",
				Name:      "sweeps_total",
				Help:      "Completed validation sweeps by result",
			},
			[]string{"result"},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "session_validation",
				Name:      "sweep_duration_seconds",
				Help:      "Duration of validation sweeps",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		swept: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session_validation",
				Name:      "sessions_total",
				Help:      "Sessions examined by validation sweeps by outcome",
			},
			[]string{"outcome"},
		),
	}

	for _, col := range []prometheus.Collector{c.lifecycle, c.sweeps, c.sweepDuration, c.swept} {
		if err := registerer.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Subscribe counts start, stop and expiration events published on bus.
func (c *Collector) Subscribe(bus Subscriber) error {
	count := func(name string) event.Handler {
		return event.NewHandler("metrics."+name, func(ctx context.Context, _ any) error {
			c.lifecycle.WithLabelValues(name).Inc()
			return nil
		})
	}

	return errors.Join(
		bus.Subscribe(session.TopicStart, count("start")),
		bus.Subscribe(session.TopicStop, count("stop")),
		bus.Subscribe(session.TopicExpire, count("expire")),
	)
}

// ObserveSweep records one validation sweep. It has the session.SweepHook
// signature:
//
//	session.WithSweepHook(collector.ObserveSweep)
func (c *Collector) ObserveSweep(result session.SweepResult, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.sweeps.WithLabelValues(status).Inc()
	c.sweepDuration.Observe(elapsed.Seconds())

	c.swept.WithLabelValues("valid").Add(float64(result.Valid))
	c.swept.WithLabelValues("expired").Add(float64(result.Expired))
	c.swept.WithLabelValues("invalidated").Add(float64(result.Invalidated))
	c.swept.WithLabelValues("failed").Add(float64(result.Failed))
}
