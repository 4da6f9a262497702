package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records row and phase outcomes of a run.
type Metrics struct {
	registry      *prometheus.Registry
	rows          *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	phaseFailures *prometheus.CounterVec
	runDuration   prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flatci_rows_total",
			Help: "Matrix rows finished, by status.",
		}, []string{"status"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flatci_phase_duration_seconds",
			Help:    "Wall time of row phases.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"phase"}),
		phaseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flatci_phase_failures_total",
			Help: "Row phases that failed, by phase.",
		}, []string{"phase"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flatci_run_duration_seconds",
			Help: "Wall time of the last matrix run.",
		}),
	}
	m.registry.MustRegister(m.rows, m.phaseDuration, m.phaseFailures, m.runDuration)
	return m
}

// ObservePhase records a finished phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration, failed bool) {
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	if failed {
		m.phaseFailures.WithLabelValues(phase).Inc()
	}
}

// ObserveRow records a finished row.
func (m *Metrics) ObserveRow(status string) {
	m.rows.WithLabelValues(status).Inc()
}

// ObserveRun records the total run time.
func (m *Metrics) ObserveRun(d time.Duration) {
	m.runDuration.Set(d.Seconds())
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes the metrics in the text exposition format, atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
