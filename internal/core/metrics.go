package core

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type importMetrics struct {
	detectedTotal   *prometheus.CounterVec
	rowsTotal       *prometheus.CounterVec
	batchesTotal    *prometheus.CounterVec
	supersededTotal *prometheus.CounterVec
	commitDuration  *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
}

// getMetrics registers collectors on first use. Registration against the
// default registry panics on duplicates, so it must happen exactly once.
var getMetrics = sync.OnceValue(func() *importMetrics {
	return &importMetrics{
		detectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadimport",
			Name:      "sheets_detected_total",
			Help:      "Sheets parsed, by detected source.",
		}, []string{"source"}),
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadimport",
			Name:      "rows_total",
			Help:      "Committed rows, by source and result.",
		}, []string{"source", "result"}),
		batchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadimport",
			Name:      "batches_total",
			Help:      "Commit attempts, by source and outcome.",
		}, []string{"source", "outcome"}),
		supersededTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadimport",
			Name:      "superseded_records_total",
			Help:      "Records deactivated by a newer import of the same source.",
		}, []string{"source"}),
		commitDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loadimport",
			Name:      "commit_duration_seconds",
			Help:      "Time spent inside one commit transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		activeSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "loadimport",
			Name:      "active_sessions",
			Help:      "Import sessions held in memory.",
		}),
	}
})
