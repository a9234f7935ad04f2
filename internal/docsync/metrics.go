package docsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts synchronization traffic per document
type Metrics struct {
	emits         *prometheus.CounterVec
	emitErrors    *prometheus.CounterVec
	remoteUpdates *prometheus.CounterVec
	initFailures  *prometheus.CounterVec
}

// NewMetrics registers the sync counters with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		emits: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "market_sync_emits_total", Help: "Local snapshots pushed to the sync layer"},
			[]string{"document"},
		),
		emitErrors: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "market_sync_emit_errors_total", Help: "Failed pushes to the sync layer"},
			[]string{"document"},
		),
		remoteUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "market_sync_remote_updates_total", Help: "Remote snapshots applied locally"},
			[]string{"document"},
		),
		initFailures: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "market_sync_init_failures_total", Help: "Bindings that failed to initialize"},
			[]string{"document"},
		),
	}
}

func (m *Metrics) incEmit(doc string) {
	if m != nil {
		m.emits.WithLabelValues(doc).Inc()
	}
}

func (m *Metrics) incEmitError(doc string) {
	if m != nil {
		m.emitErrors.WithLabelValues(doc).Inc()
	}
}

func (m *Metrics) incRemote(doc string) {
	if m != nil {
		m.remoteUpdates.WithLabelValues(doc).Inc()
	}
}

func (m *Metrics) incInitFailure(doc string) {
	if m != nil {
		m.initFailures.WithLabelValues(doc).Inc()
	}
}
