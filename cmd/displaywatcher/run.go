package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/supporttools/displaywatcher/pkg/logger"
	"github.com/supporttools/displaywatcher/pkg/types"
	"github.com/supporttools/displaywatcher/pkg/watcher"
)

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check the display arrangement once and act on the result (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
}

// runOnce performs a single decision cycle.
func runOnce(cmd *cobra.Command, opts *options) error {
	config, err := prepare(opts)
	if err != nil {
		return err
	}
	log := logger.Get()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("displaywatcher %s starting on %s (max reboots %d, dry-run %v)",
		Version, config.Settings.Hostname, config.Recovery.MaxReboots, config.Recovery.DryRun)

	runner, cleanup, err := buildRunner(ctx, config, log)
	if err != nil {
		return &exitCodeError{code: watcher.ExitFailure, err: types.NewError(types.ErrorKindConfig, "build components", err)}
	}
	defer cleanup()

	report := runner.Run(ctx)
	logRunSummary(report)

	if code := watcher.ExitCode(report); code != watcher.ExitOK {
		return &exitCodeError{code: code}
	}
	return nil
}

func logRunSummary(report *types.RunReport) {
	fields := logrus.Fields{
		"host":              report.Hostname,
		"outcome":           string(report.Outcome),
		"previous_attempts": report.PreviousAttempts,
		"attempts":          report.Attempts,
		"max_reboots":       report.MaxReboots,
		"duration":          report.Duration().String(),
	}
	if report.Healthy != nil {
		fields["positions_correct"] = *report.Healthy
	}
	if report.DryRun {
		fields["dry_run"] = true
	}

	entry := logger.WithFields(fields)
	if report.ErrorKind != types.ErrorKindNone {
		entry.WithField("error_kind", report.ErrorKind.String()).Error("Run finished with an error")
		return
	}
	entry.Info("Run finished")
}
