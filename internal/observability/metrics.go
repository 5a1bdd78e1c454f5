// Package observability exposes resolver metrics and debug endpoints over
// HTTP.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danpasecinic/spindle"
)

const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Collector records every top-level resolution of a resolver.
type Collector struct {
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_resolutions_total",
				Help: "Number of service resolutions by satisfying container and outcome.",
			},
			[]string{"container", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spindle_resolution_duration_seconds",
				Help:    "Time taken to resolve a service, including lazy container loading.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	for _, collector := range []prometheus.Collector{c.resolutions, c.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hook returns the resolve observer to pass to spindle.WithResolveObserver.
func (c *Collector) Hook() spindle.ResolveHook {
	return func(_, container string, duration time.Duration, err error) {
		outcome := Outcome(container, err)
		c.resolutions.WithLabelValues(container, outcome).Inc()
		c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

func (c *Collector) Resolutions() *prometheus.CounterVec {
	return c.resolutions
}

func Outcome(container string, err error) string {
	switch {
	case err != nil && !spindle.IsNotFound(err):
		return OutcomeError
	case err != nil || container == "":
		return OutcomeMiss
	default:
		return OutcomeHit
	}
}
