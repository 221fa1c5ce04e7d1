package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "displaywatcher"

// Metrics contains the gauges describing the last run.
type Metrics struct {
	// RebootAttempts and PositionsCorrect have no variable labels. They are
	// vectors so that a run which never learned the value exports nothing.
	RebootAttempts   *prometheus.GaugeVec
	PositionsCorrect *prometheus.GaugeVec

	MaxReboots              prometheus.Gauge
	LastRunTimestampSeconds prometheus.Gauge
	LastRunDurationSeconds  prometheus.Gauge
	DryRun                  prometheus.Gauge

	RunOutcome *prometheus.GaugeVec
	RunError   *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all metric definitions
func NewMetrics(namespace string, constLabels prometheus.Labels) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	labels := make(prometheus.Labels)
	for k, v := range constLabels {
		labels[k] = v
	}

	m := &Metrics{
		RebootAttempts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "reboot_attempts",
				Help:        "Consecutive reboot attempts recorded after the last run",
				ConstLabels: labels,
			},
			nil,
		),

		PositionsCorrect: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "positions_correct",
				Help:        "Whether the last probe reported correct display positions (1=yes, 0=no)",
				ConstLabels: labels,
			},
			nil,
		),

		MaxReboots: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "max_reboots",
				Help:        "Configured reboot attempt ceiling",
				ConstLabels: labels,
			},
		),

		LastRunTimestampSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "last_run_timestamp_seconds",
				Help:        "Unix time at which the last run finished",
				ConstLabels: labels,
			},
		),

		LastRunDurationSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "last_run_duration_seconds",
				Help:        "Duration of the last run in seconds",
				ConstLabels: labels,
			},
		),

		DryRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "dry_run",
				Help:        "Whether the last run had reboots disabled (1=dry-run)",
				ConstLabels: labels,
			},
		),

		RunOutcome: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "run_outcome",
				Help:        "Outcome of the last run (1 for the current outcome, 0 otherwise)",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),

		RunError: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "run_error",
				Help:        "Error kind of the last run (1 for the current kind, 0 otherwise)",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
	}

	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RebootAttempts,
		m.PositionsCorrect,
		m.MaxReboots,
		m.LastRunTimestampSeconds,
		m.LastRunDurationSeconds,
		m.DryRun,
		m.RunOutcome,
		m.RunError,
	}
}

// Register registers all metrics with the provided registry
func (m *Metrics) Register(registry *prometheus.Registry) error {
	for _, collector := range m.collectors() {
		if err := registry.Register(collector); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return nil
}

// Unregister removes all metrics from the provided registry
func (m *Metrics) Unregister(registry *prometheus.Registry) {
	for _, collector := range m.collectors() {
		registry.Unregister(collector)
	}
}
