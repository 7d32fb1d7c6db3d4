// Package metrics exposes prometheus collectors for the filter engine.
// A Collector is constructed with a caller-supplied
// prometheus.Registerer rather than registering against the global
// default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the counters and histogram cmd/spsmtool (or any other
// caller) updates around a filter run.
type Collector struct {
	PairsConsidered prometheus.Counter
	MappedPairs     prometheus.Counter
	Duration        prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		PairsConsidered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spsm_filter_pairs_considered_total",
			Help: "Total number of source/target node pairs considered by the filter engine.",
		}),
		MappedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spsm_filter_mapped_pairs_total",
			Help: "Total number of node pairs that survived filtering into the final mapping.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spsm_filter_duration_seconds",
			Help:    "Time spent running the SPSM filter over a single candidate mapping.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.PairsConsidered, c.MappedPairs, c.Duration)
	return c
}

// ObserveRun records the outcome of one filter invocation.
func (c *Collector) ObserveRun(considered, mapped int, elapsed time.Duration) {
	c.PairsConsidered.Add(float64(considered))
	c.MappedPairs.Add(float64(mapped))
	c.Duration.Observe(elapsed.Seconds())
}
