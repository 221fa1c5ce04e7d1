// Package watcher runs a single displaywatcher invocation: one decision cycle,
// the generic failure notification, and the hand-off to exporters.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/supporttools/displaywatcher/pkg/recovery"
	"github.com/supporttools/displaywatcher/pkg/types"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Logger provides optional logging functionality for the runner.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Decision runs one recovery cycle. *recovery.Decider implements it.
type Decision interface {
	Decide(ctx context.Context) (*recovery.Result, error)
}

// Options carries the run metadata copied into every report.
type Options struct {
	Hostname   string
	MaxReboots int
	DryRun     bool

	// ErrorMessage is the text of the generic failure notification.
	ErrorMessage string
}

// Runner is the caller of the decider.
type Runner struct {
	decider   Decision
	notifier  types.Notifier
	exporters []types.Exporter

	options Options
	logger  Logger
	now     func() time.Time
}

// NewRunner creates a runner. log may be nil.
func NewRunner(decider Decision, notifier types.Notifier, options Options, log Logger) (*Runner, error) {
	if decider == nil {
		return nil, fmt.Errorf("decider cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier cannot be nil")
	}
	if options.ErrorMessage == "" {
		options.ErrorMessage = types.DefaultErrorMessage
	}

	return &Runner{
		decider:  decider,
		notifier: notifier,
		options:  options,
		logger:   log,
		now:      time.Now,
	}, nil
}

// AddExporter registers an exporter that receives every run report.
func (r *Runner) AddExporter(exporter types.Exporter) {
	if exporter == nil {
		return
	}
	r.exporters = append(r.exporters, exporter)
}

// Run executes one decision cycle and returns its report. It never panics
// and never returns nil.
func (r *Runner) Run(ctx context.Context) *types.RunReport {
	report := &types.RunReport{
		StartedAt:        r.now(),
		Hostname:         r.options.Hostname,
		PreviousAttempts: -1,
		Attempts:         -1,
		MaxReboots:       r.options.MaxReboots,
		DryRun:           r.options.DryRun,
	}

	result, err := r.decide(ctx)
	if result != nil {
		report.Outcome = result.Outcome
		report.Healthy = result.Healthy
		report.PreviousAttempts = result.PreviousAttempts
		report.Attempts = result.Attempts
	}

	if err != nil {
		report.Outcome = types.OutcomeRunError
		report.ErrorKind = types.KindOf(err)
		report.ErrorMessage = err.Error()
		r.logErrorf("Run failed (%s): %v", report.ErrorKind, err)

		notification := types.Notification{
			Kind:       types.NotificationError,
			Attempts:   report.PreviousAttempts,
			MaxReboots: r.options.MaxReboots,
			Message:    r.options.ErrorMessage,
		}
		if nerr := r.notifier.Notify(ctx, notification); nerr != nil {
			r.logErrorf("Failed to send error notification: %v", nerr)
		}
	}

	report.FinishedAt = r.now()
	r.export(ctx, report)

	return report
}

// decide shields the run from panics in collaborators.
func (r *Runner) decide(ctx context.Context) (result *recovery.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during decision: %v", p)
		}
	}()
	return r.decider.Decide(ctx)
}

func (r *Runner) export(ctx context.Context, report *types.RunReport) {
	for _, exporter := range r.exporters {
		if err := exporter.ExportRun(ctx, report); err != nil {
			r.logWarnf("Failed to export run report to %T: %v", exporter, err)
		}
	}
}

// ExitCode maps a report to the process exit status.
func ExitCode(report *types.RunReport) int {
	if report == nil || !report.Outcome.Succeeded() {
		return ExitFailure
	}
	return ExitOK
}

func (r *Runner) logWarnf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warnf(format, args...)
	}
}

func (r *Runner) logErrorf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Errorf(format, args...)
	}
}
