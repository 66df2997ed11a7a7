package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for query resolution
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	FamilyFallbacks *prometheus.CounterVec
}

// NewMetrics creates the resolver metrics, registered with reg unless
// it's nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_resolutions_total",
				Help: "Resolved queries by policy and result",
			},
			[]string{"policy", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mlabns_resolution_duration_seconds",
				Help:    "Time spent resolving a query",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"policy"},
		),
		FamilyFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlabns_address_family_fallbacks_total",
				Help: "Queries retried with the other address family, by original family",
			},
			[]string{"family"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Resolutions, m.Duration, m.FamilyFallbacks)
	}

	return m
}

func (m *Metrics) observe(policy, result string, start time.Time) {
	m.Resolutions.WithLabelValues(policy, result).Inc()
	m.Duration.WithLabelValues(policy).Observe(time.Since(start).Seconds())
}
