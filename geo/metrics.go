package geo

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for lookups and table reloads
type Metrics struct {
	Lookups      *prometheus.CounterVec
	TableEntries *prometheus.GaugeVec
	LoadedAt     prometheus.Gauge
	Reloads      *prometheus.CounterVec
	LoadDuration prometheus.Histogram
}

// NewMetrics creates the geo metrics and registers them with reg unless
// it's nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_geo_lookups_total",
				Help: "Geolocation lookups by address family and result",
			},
			[]string{"family", "result"},
		),
		TableEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mlabns_geo_table_entries",
				Help: "Number of entries in the current geolocation tables",
			},
			[]string{"table"},
		),
		LoadedAt: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mlabns_geo_tables_loaded_timestamp_seconds",
				Help: "When the current geolocation tables were loaded",
			},
		),
		Reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_geo_reloads_total",
				Help: "Geolocation table loads by result",
			},
			[]string{"result"},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mlabns_geo_load_duration_seconds",
				Help:    "Time spent loading geolocation tables",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Lookups,
			m.TableEntries,
			m.LoadedAt,
			m.Reloads,
			m.LoadDuration,
		)
	}

	return m
}
