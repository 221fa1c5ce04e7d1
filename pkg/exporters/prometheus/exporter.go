// Package prometheus exports the result of each run as Prometheus gauges.
//
// displaywatcher exits after every run, so there is nothing to scrape. The
// gauges are written to a node_exporter textfile and/or pushed to a
// Pushgateway instead.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/supporttools/displaywatcher/pkg/types"
)

// Logger provides optional logging functionality for the exporter.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// PrometheusExporter publishes run reports to the configured metric sinks.
type PrometheusExporter struct {
	config   types.MetricsConfig
	hostname string
	registry *prometheus.Registry
	metrics  *Metrics
	logger   Logger
}

// NewPrometheusExporter creates an exporter. log may be nil.
func NewPrometheusExporter(config types.MetricsConfig, hostname string, log Logger) (*PrometheusExporter, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("Prometheus exporter is disabled")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if hostname == "" {
		return nil, fmt.Errorf("hostname is required")
	}

	// No Go runtime or process collectors: node_exporter already exposes
	// those names and the textfile collector rejects duplicates.
	registry := prometheus.NewRegistry()

	metrics, err := NewMetrics(DefaultNamespace, prometheus.Labels{"host": hostname})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &PrometheusExporter{
		config:   config,
		hostname: hostname,
		registry: registry,
		metrics:  metrics,
		logger:   log,
	}, nil
}

// ExportRun updates the gauges from report and writes them to every sink.
// All sinks are attempted; their errors are joined.
func (e *PrometheusExporter) ExportRun(ctx context.Context, report *types.RunReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	e.update(report)

	var errs []error
	if e.config.Textfile != "" {
		if err := e.writeTextfile(); err != nil {
			errs = append(errs, err)
		} else if e.logger != nil {
			e.logger.Infof("Wrote run metrics to %s", e.config.Textfile)
		}
	}
	if e.config.PushgatewayURL != "" {
		if err := e.push(ctx); err != nil {
			errs = append(errs, err)
		} else if e.logger != nil {
			e.logger.Infof("Pushed run metrics to %s (job %s)", e.config.PushgatewayURL, e.config.Job)
		}
	}

	return errors.Join(errs...)
}

func (e *PrometheusExporter) update(report *types.RunReport) {
	m := e.metrics

	m.RebootAttempts.Reset()
	switch {
	case report.Attempts >= 0:
		m.RebootAttempts.WithLabelValues().Set(float64(report.Attempts))
	case report.PreviousAttempts >= 0:
		m.RebootAttempts.WithLabelValues().Set(float64(report.PreviousAttempts))
	}

	m.PositionsCorrect.Reset()
	if report.Healthy != nil {
		m.PositionsCorrect.WithLabelValues().Set(boolToFloat(*report.Healthy))
	}

	m.MaxReboots.Set(float64(report.MaxReboots))
	m.LastRunTimestampSeconds.Set(float64(report.FinishedAt.UnixNano()) / 1e9)
	m.LastRunDurationSeconds.Set(report.Duration().Seconds())
	m.DryRun.Set(boolToFloat(report.DryRun))

	for _, outcome := range types.AllOutcomes {
		m.RunOutcome.WithLabelValues(string(outcome)).Set(boolToFloat(outcome == report.Outcome))
	}
	for _, kind := range types.AllErrorKinds {
		m.RunError.WithLabelValues(kind.String()).Set(boolToFloat(kind == report.ErrorKind))
	}
}

// writeTextfile relies on WriteToTextfile's temp-file-and-rename.
func (e *PrometheusExporter) writeTextfile() error {
	if err := os.MkdirAll(filepath.Dir(e.config.Textfile), 0755); err != nil {
		return fmt.Errorf("failed to create textfile directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(e.config.Textfile, e.registry); err != nil {
		return fmt.Errorf("failed to write textfile %s: %w", e.config.Textfile, err)
	}
	return nil
}

func (e *PrometheusExporter) push(ctx context.Context) error {
	pusher := push.New(e.config.PushgatewayURL, e.config.Job).
		Gatherer(e.registry).
		Grouping("instance", e.hostname)

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", e.config.PushgatewayURL, err)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
