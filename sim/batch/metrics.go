package batch

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects batch-level counters for a run. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	replicates   prometheus.Counter
	steps        prometheus.Counter
	leapRetries  prometheus.Counter
	limitReached prometheus.Counter
	exitTime     prometheus.Histogram
	edge         prometheus.Histogram
}

// NewMetrics registers the batch collectors on a fresh registry. duration is
// the simulated run length and sets the exit-time bucket layout.
func NewMetrics(duration float64) *Metrics {
	exitBuckets := prometheus.DefBuckets
	if duration > 0 {
		exitBuckets = prometheus.LinearBuckets(duration/10, duration/10, 10)
	}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		replicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biofilm_replicates_total",
			Help: "Replicates run to completion.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biofilm_steps_total",
			Help: "Accepted tau-leaping steps across all replicates.",
		}),
		leapRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biofilm_leap_retries_total",
			Help: "Leaps rejected and resampled with a halved step.",
		}),
		limitReached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biofilm_thickness_limit_reached_total",
			Help: "Replicates that stopped on the thickness limit.",
		}),
		exitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "biofilm_exit_time_hours",
			Help:    "Simulated time at which each replicate stopped.",
			Buckets: exitBuckets,
		}),
		edge: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "biofilm_edge_depth",
			Help:    "Deepest biofilm-region index at exit.",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		}),
	}
	m.Registry.MustRegister(m.replicates, m.steps, m.leapRetries, m.limitReached, m.exitTime, m.edge)
	return m
}

// Observe records one finished replicate.
func (m *Metrics) Observe(r Result) {
	if m == nil {
		return
	}
	m.replicates.Inc()
	m.steps.Add(float64(r.Steps))
	m.leapRetries.Add(float64(r.LeapRetries))
	if r.ReachedLimit {
		m.limitReached.Inc()
	}
	m.exitTime.Observe(r.ExitTime)
	m.edge.Observe(float64(r.Edge))
}

// WriteTextfile writes the collected metrics in the Prometheus text
// exposition format, suitable for the node-exporter textfile collector.
// A nil Metrics writes nothing.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
