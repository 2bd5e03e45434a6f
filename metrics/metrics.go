// Package metrics exports page construction timings to Prometheus.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagekit"

// Collector records the duration and failures of count and slice calls.
// It satisfies pagekit.Observer.
type Collector struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// New creates a collector and registers it with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) (*Collector, error) {

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of source calls made while building a page.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Source calls that returned an error.",
		}, []string{"op"}),
	}

	for _, col := range []prometheus.Collector{c.duration, c.errors} {
		if err := reg.Register(col); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return c, nil

}

// ObserveQuery records one source call.
func (c *Collector) ObserveQuery(op string, took time.Duration, err error) {

	c.duration.WithLabelValues(op).Observe(took.Seconds())

	if err != nil {
		c.errors.WithLabelValues(op).Inc()
	}

}
