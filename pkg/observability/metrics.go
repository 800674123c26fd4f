package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Runtime resolution metrics
	ResolutionsTotal *prometheus.CounterVec
	CandidatesTotal  *prometheus.CounterVec
	InstancesTotal   prometheus.Counter

	// Build-time provisioning metrics
	ProvisionTotal    *prometheus.CounterVec
	ProvisionDuration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modloader_resolutions_total",
				Help: "Total number of implementation resolutions by terminal state",
			},
			[]string{"state"},
		),
		CandidatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modloader_candidates_total",
				Help: "Total number of scanned candidate images by scan result",
			},
			[]string{"result"},
		),
		InstancesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "modloader_instances_total",
				Help: "Total number of constructed extension instances",
			},
		),
		ProvisionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modloader_provision_total",
				Help: "Total number of provisioning runs by status",
			},
			[]string{"status"},
		),
		ProvisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "modloader_provision_duration_seconds",
				Help:    "Provisioning run duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
	}

	registry.MustRegister(
		m.ResolutionsTotal,
		m.CandidatesTotal,
		m.InstancesTotal,
		m.ProvisionTotal,
		m.ProvisionDuration,
	)

	return m
}

// RecordResolution counts a finished resolution
func (m *Metrics) RecordResolution(state string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(state).Inc()
}

// RecordCandidate counts one scanned candidate
func (m *Metrics) RecordCandidate(result string) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(result).Inc()
}

// RecordInstances counts constructed extension instances
func (m *Metrics) RecordInstances(n int) {
	if m == nil {
		return
	}
	m.InstancesTotal.Add(float64(n))
}

// RecordProvision counts a provisioning run and observes its duration.
// Skipped runs are counted but not timed.
func (m *Metrics) RecordProvision(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProvisionTotal.WithLabelValues(status).Inc()
	if status != "skipped" {
		m.ProvisionDuration.Observe(d.Seconds())
	}
}
