package candidates

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for candidate retrieval and cache syncing
type Metrics struct {
	Fetches        *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	SyncRuns       *prometheus.CounterVec
	SyncedSlivers  *prometheus.GaugeVec
	SyncSkipped    *prometheus.CounterVec
	SyncedLocation *prometheus.CounterVec
}

// NewMetrics creates the candidate metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_candidate_fetches_total",
				Help: "Candidate fetches by where the records came from",
			},
			[]string{"source"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mlabns_candidate_fetch_duration_seconds",
				Help:    "Time spent fetching candidates",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"source"},
		),

		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_cache_sync_runs_total",
				Help: "Cache sync runs by result",
			},
			[]string{"result"},
		),

		SyncedSlivers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mlabns_cache_synced_slivers",
				Help: "Number of slivers written to the cache in the last sync",
			},
			[]string{"tool_id"},
		),

		SyncSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_cache_sync_skipped_total",
				Help: "Tools not written to the cache because the store had no slivers",
			},
			[]string{"tool_id"},
		),

		SyncedLocation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_cache_sync_location_lookups_total",
				Help: "Sliver site coordinates filled in from the geo tables",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Fetches,
			m.FetchDuration,
			m.SyncRuns,
			m.SyncedSlivers,
			m.SyncSkipped,
			m.SyncedLocation,
		)
	}

	return m
}
