package lookup

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes recorded by Metrics.
const (
	OutcomeInvalid  = "invalid"
	OutcomeCacheHit = "cache_hit"
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
)

// Metrics bundles the Prometheus collectors for the lookup pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry       *prometheus.Registry
	LookupsTotal   *prometheus.CounterVec
	AttemptsTotal  *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec
	MirrorTotal    *prometheus.CounterVec
}

// NewMetrics registers the lookup collectors on reg, or on a fresh registry
// when reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_lookups_total",
			Help: "ISBN lookups by outcome.",
		},
		[]string{"outcome"},
	)
	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_lookup_source_attempts_total",
			Help: "Catalog source attempts by source, key form and result.",
		},
		[]string{"source", "form", "result"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_lookup_source_duration_seconds",
			Help:    "Latency of catalog source calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	mirror := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cover_mirror_total",
			Help: "Cover re-hosting attempts by result.",
		},
		[]string{"result"},
	)

	reg.MustRegister(lookups, attempts, duration, mirror)

	return &Metrics{
		Registry:       reg,
		LookupsTotal:   lookups,
		AttemptsTotal:  attempts,
		SourceDuration: duration,
		MirrorTotal:    mirror,
	}
}

func (m *Metrics) IncLookup(outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAttempt records one source call. result is "hit", "miss", "error" or "timeout".
func (m *Metrics) ObserveAttempt(source SourceName, form KeyForm, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(string(source), string(form), result).Inc()
	m.SourceDuration.WithLabelValues(string(source)).Observe(d.Seconds())
}

// IncMirror records a cover mirroring result: "mirrored", "owned" or "failed".
func (m *Metrics) IncMirror(result string) {
	if m == nil {
		return
	}
	m.MirrorTotal.WithLabelValues(result).Inc()
}
