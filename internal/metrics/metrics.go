// Package metrics records generation calls and validation scores with
// Prometheus collectors. A CLI run has no scrape endpoint, so the registry
// is dumped in textfile-collector format when a metrics file is configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry and the evoprobe collectors.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	identity prometheus.Gauge
	symbols  *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evoprobe_generation_requests_total",
			Help: "Generation calls by run kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evoprobe_generation_duration_seconds",
			Help:    "Wall time of generation calls.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"kind"}),
		identity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evoprobe_validation_identity_percent",
			Help: "Identity between the generated and held-out sequence in the last validation.",
		}),
		symbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evoprobe_generated_symbols_total",
			Help: "Nucleotides returned by the generation service.",
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.requests, r.duration, r.identity, r.symbols)
	return r
}

// ObserveGeneration records one generation call. outcome is "ok" or an
// error kind name.
func (r *Recorder) ObserveGeneration(kind, outcome string, elapsed time.Duration, generated int) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(kind, outcome).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if generated > 0 {
		r.symbols.WithLabelValues(kind).Add(float64(generated))
	}
}

// SetIdentity records the latest validation identity percentage.
func (r *Recorder) SetIdentity(pct float64) {
	if r == nil {
		return
	}
	r.identity.Set(pct)
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteFile writes all metrics to path in the node-exporter textfile format.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
