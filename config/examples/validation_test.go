package examples_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/supporttools/displaywatcher/pkg/types"
	"github.com/supporttools/displaywatcher/pkg/util"
)

// TestExampleConfigs loads every example file in this directory.
func TestExampleConfigs(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "test-password")

	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("failed to list examples: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no example configurations found")
	}

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			config, err := util.LoadConfig(file)
			if err != nil {
				t.Fatalf("LoadConfig(%s) error = %v", file, err)
			}
			if config.Kind != types.DefaultKind {
				t.Errorf("Kind = %q, want %q", config.Kind, types.DefaultKind)
			}
			if config.Settings.Hostname == "" {
				t.Error("hostname default not applied")
			}
		})
	}
}

func TestProductionExample(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "s3cret")

	config, err := util.LoadConfig("displaywatcher.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Probe.Command != util.DefaultProbeCommand {
		t.Errorf("Probe.Command = %q, want %q", config.Probe.Command, util.DefaultProbeCommand)
	}
	if config.Probe.Timeout != 2*time.Minute {
		t.Errorf("Probe.Timeout = %v, want 2m", config.Probe.Timeout)
	}
	if config.Recovery.MaxReboots != 3 {
		t.Errorf("MaxReboots = %d, want 3", config.Recovery.MaxReboots)
	}
	if config.Notification.SMTP.Password != "s3cret" {
		t.Errorf("SMTP password = %q, want value from environment", config.Notification.SMTP.Password)
	}
	if !config.Metrics.Enabled() {
		t.Error("metrics should be enabled by the textfile sink")
	}
	if !config.Journal.Enabled || config.Journal.Retention != 720*time.Hour {
		t.Errorf("Journal = %+v, want enabled with 720h retention", config.Journal)
	}
}

func TestExampleWithoutSecret(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "")

	// An unset password leaves a username without password, which is allowed.
	if _, err := util.LoadConfig("displaywatcher.yaml"); err != nil {
		t.Errorf("LoadConfig() without SMTP_PASSWORD error = %v", err)
	}
}
