package observe

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metric label values for item status.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// MetricsSink records events as Prometheus metrics on its own registry
type MetricsSink struct {
	registry *prometheus.Registry

	itemsTotal    *prometheus.CounterVec
	itemDuration  *prometheus.HistogramVec
	batchDuration *prometheus.HistogramVec
	batchesTotal  *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

// NewMetricsSink creates a sink with a fresh registry so several engines in
// one process never collide on metric names.
func NewMetricsSink() *MetricsSink {
	m := &MetricsSink{
		registry: prometheus.NewRegistry(),
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchrun_items_total",
				Help: "Total number of work items executed, by strategy and status.",
			},
			[]string{"strategy", "status"},
		),
		itemDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "batchrun_item_duration_seconds",
				Help:    "Wall-clock duration of a single payload invocation, in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "batchrun_batch_duration_seconds",
				Help:    "Wall-clock duration of a whole batch, in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchrun_batches_total",
				Help: "Total number of batches run, by strategy.",
			},
			[]string{"strategy"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "batchrun_batches_in_flight",
				Help: "Number of batches currently running.",
			},
		),
	}

	m.registry.MustRegister(m.itemsTotal, m.itemDuration, m.batchDuration, m.batchesTotal, m.inFlight)
	return m
}

// Registry exposes the underlying registry, e.g. for promhttp or tests
func (m *MetricsSink) Registry() *prometheus.Registry {
	return m.registry
}

// Record updates the metrics for ev
func (m *MetricsSink) Record(ev Event) {
	switch ev.Kind {
	case BatchStarted:
		m.inFlight.Inc()
	case ItemFinished:
		status := statusSucceeded
		if !ev.Success {
			status = statusFailed
		}
		m.itemsTotal.WithLabelValues(ev.Strategy, status).Inc()
		m.itemDuration.WithLabelValues(ev.Strategy).Observe(ev.Duration.Seconds())
	case BatchFinished:
		m.inFlight.Dec()
		m.batchesTotal.WithLabelValues(ev.Strategy).Inc()
		m.batchDuration.WithLabelValues(ev.Strategy).Observe(ev.Duration.Seconds())
	}
}

// WriteText dumps every gathered metric family in the Prometheus text format
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, fam := range families {
		if _, err := expfmt.MetricFamilyToText(w, fam); err != nil {
			return fmt.Errorf("write metric family %s: %w", fam.GetName(), err)
		}
	}
	return nil
}
