package main

import (
	"context"
	"fmt"

	"github.com/supporttools/displaywatcher/pkg/counter"
	promexporter "github.com/supporttools/displaywatcher/pkg/exporters/prometheus"
	"github.com/supporttools/displaywatcher/pkg/journal"
	"github.com/supporttools/displaywatcher/pkg/logger"
	"github.com/supporttools/displaywatcher/pkg/notifier"
	"github.com/supporttools/displaywatcher/pkg/probe"
	"github.com/supporttools/displaywatcher/pkg/recovery"
	"github.com/supporttools/displaywatcher/pkg/remediators"
	"github.com/supporttools/displaywatcher/pkg/types"
	"github.com/supporttools/displaywatcher/pkg/watcher"
)

// buildRunner wires every component from the configuration. The returned
// cleanup func must be called once the run is over.
func buildRunner(ctx context.Context, config *types.WatcherConfig, log logger.Logger) (*watcher.Runner, func(), error) {
	hostname := config.Settings.Hostname

	healthProbe, err := probe.NewCommandProbe(config.Probe, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create probe: %w", err)
	}

	attempts, err := counter.NewFileCounter(config.Recovery.CounterFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create attempt counter: %w", err)
	}

	notify, err := notifier.New(config.Notification, hostname, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	reboot, err := remediators.NewRebootRemediator(remediators.RebootConfig{
		Command: config.Recovery.RebootCommand,
		DryRun:  config.Recovery.DryRun,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create reboot remediator: %w", err)
	}
	reboot.SetLogger(log)
	if reboot.IsDryRun() {
		log.Infof("Dry-run enabled, reboot command %q will only be logged", reboot.Command())
	} else {
		log.Infof("Reboot command: %s", reboot.Command())
	}

	decider, err := recovery.NewDecider(config.Recovery.MaxReboots, healthProbe, attempts, notify, reboot, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create decider: %w", err)
	}

	runner, err := watcher.NewRunner(decider, notify, watcher.Options{
		Hostname:     hostname,
		MaxReboots:   decider.MaxReboots(),
		DryRun:       reboot.IsDryRun(),
		ErrorMessage: types.DefaultErrorMessage,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create runner: %w", err)
	}

	cleanup := func() {}

	if config.Metrics.Enabled() {
		metrics, err := promexporter.NewPrometheusExporter(config.Metrics, hostname, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		runner.AddExporter(metrics)
	}

	if config.Journal.Enabled {
		// A broken journal must not stop the recovery decision.
		j, err := journal.Open(ctx, config.Journal, log)
		if err != nil {
			log.Warnf("Run journal disabled for this run: %v", err)
		} else {
			runner.AddExporter(j)
			cleanup = func() {
				if err := j.Close(); err != nil {
					log.Warnf("Failed to close run journal: %v", err)
				}
			}
		}
	}

	return runner, cleanup, nil
}
