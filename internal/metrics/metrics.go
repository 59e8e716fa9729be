// Package metrics holds the Prometheus collectors of the import pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type collectors struct {
	importTotal          *prometheus.CounterVec
	importRows           *prometheus.CounterVec
	importDuration       *prometheus.HistogramVec
	identifierCollisions *prometheus.CounterVec
	auditFailures        *prometheus.CounterVec
}

var collectorsSingleton = sync.OnceValue(func() *collectors {
	return &collectors{
		importTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Name:      "import_total",
			Help:      "Total number of import requests by entity and outcome.",
		}, []string{"entity", "outcome"}),
		importRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Name:      "import_rows_total",
			Help:      "Rows processed by committed imports.",
		}, []string{"entity", "action"}),
		importDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "staffing",
			Name:      "import_duration_seconds",
			Help:      "Latency distribution for imports.",
			Buckets: []float64{
				0.01, 0.05, 0.1, 0.25, 0.5,
				1, 2.5, 5, 10, 30,
			},
		}, []string{"entity", "outcome"}),
		identifierCollisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Name:      "identifier_collisions_total",
			Help:      "Generated business identifiers rejected by the unique constraint.",
		}, []string{"prefix"}),
		auditFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Name:      "audit_failures_total",
			Help:      "Audit entries that could not be written.",
		}, []string{"entity"}),
	}
})

func get() *collectors {
	return collectorsSingleton()
}

// RecordImport counts one finished import request.
func RecordImport(entity, outcome string, elapsed time.Duration) {
	m := get()
	m.importTotal.WithLabelValues(entity, outcome).Inc()
	m.importDuration.WithLabelValues(entity, outcome).Observe(elapsed.Seconds())
}

// RecordRows adds n rows handled with action.
func RecordRows(entity, action string, n int) {
	if n <= 0 {
		return
	}
	get().importRows.WithLabelValues(entity, action).Add(float64(n))
}

// RecordIdentifierCollision counts a generated identifier that was already taken.
func RecordIdentifierCollision(prefix string) {
	get().identifierCollisions.WithLabelValues(prefix).Inc()
}

// RecordAuditFailure counts an audit entry that was dropped.
func RecordAuditFailure(entity string) {
	get().auditFailures.WithLabelValues(entity).Inc()
}
