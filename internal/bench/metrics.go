package bench

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the benchmark's live prometheus instruments, named per
// SPEC_FULL.md §3.3 and scraped over an independent registry (grounded on
// internal/observability/prometheus.go's per-call NewRegistry, minus the
// OTel exporter layer this driver has no use for).
type Metrics struct {
	Registry            *prometheus.Registry
	RoundsTotal         prometheus.Counter
	FalsePositivesTotal prometheus.Counter
	RewritesTotal       prometheus.Counter
	DirtyBuckets        prometheus.Gauge
}

// NewMetrics registers a fresh set of acuckoo_* instruments on their own
// registry, so repeated benchmark runs within one process never collide.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RoundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acuckoo_rounds_total",
			Help: "Number of lookup sweeps completed against the sample set.",
		}),
		FalsePositivesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acuckoo_false_positives_total",
			Help: "Cumulative false positives observed across all rounds.",
		}),
		RewritesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acuckoo_rewrites_total",
			Help: "Cumulative filter slots rewritten by rehash_buckets.",
		}),
		DirtyBuckets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "acuckoo_dirty_buckets",
			Help: "Number of buckets pending rehash at the end of the last round.",
		}),
	}
	registry.MustRegister(m.RoundsTotal, m.FalsePositivesTotal, m.RewritesTotal, m.DirtyBuckets)
	return m
}

// Handler exposes the registry over the standard /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
