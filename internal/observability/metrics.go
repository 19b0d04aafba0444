// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Last-run result metrics
	SnapshotBlock    prometheus.Gauge
	WalletsScored    prometheus.Gauge
	IdentitiesScored prometheus.Gauge
	MerkleLeaves     prometheus.Gauge

	// Artifact metrics
	ArtifactsUploaded prometheus.Counter

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tdh_engine"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of scoring runs by mode and status",
		}, []string{"mode", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Scoring run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"mode"}),

		SnapshotBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "snapshot_block",
			Help:      "Block number the last completed run was anchored at",
		}),
		WalletsScored: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "wallets_scored",
			Help:      "Wallet rows in the table after the last completed run",
		}),
		IdentitiesScored: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "identities_scored",
			Help:      "Identity rows in the table after the last completed run",
		}),
		MerkleLeaves: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "merkle_leaves",
			Help:      "Identities with a positive boosted score in the last published root",
		}),

		ArtifactsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifact",
			Name:      "uploads_total",
			Help:      "Total number of CSV artifacts uploaded",
		}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful scoring run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records a completed or failed run.
func (m *Metrics) RecordRun(mode, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(mode, status).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordRunResult updates the last-run gauges after a successful run.
func (m *Metrics) RecordRunResult(block int64, wallets, identities, leaves int, completedAt int64) {
	if m == nil {
		return
	}
	m.SnapshotBlock.Set(float64(block))
	m.WalletsScored.Set(float64(wallets))
	m.IdentitiesScored.Set(float64(identities))
	m.MerkleLeaves.Set(float64(leaves))
	m.LastSuccessfulRun.Set(float64(completedAt))
}

// RecordArtifactUploaded increments the artifact upload counter.
func (m *Metrics) RecordArtifactUploaded() {
	if m == nil {
		return
	}
	m.ArtifactsUploaded.Inc()
}
