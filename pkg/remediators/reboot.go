package remediators

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultShell is the shell that interprets the reboot command line.
const DefaultShell = "/bin/sh"

// RebootConfig contains configuration for the reboot remediator.
type RebootConfig struct {
	// Command is the full reboot command line, interpreted by the shell
	Command string

	// DryRun when true, only logs the command without executing it
	DryRun bool
}

// CommandRunner executes a shell command line. This allows for mocking in tests.
type CommandRunner interface {
	// Run starts command and waits for it. err is non-nil only when the shell
	// could not be started; exitCode is -1 when it is unknown.
	Run(ctx context.Context, command string) (output string, exitCode int, err error)
}

// shellRunner runs commands through DefaultShell.
type shellRunner struct{}

func (r *shellRunner) Run(ctx context.Context, command string) (string, int, error) {
	cmd := exec.CommandContext(ctx, DefaultShell, "-c", command)

	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return "", -1, err
	}

	// The command may legitimately never return (the machine goes down), and
	// its exit status says nothing reliable about whether the reboot happened.
	waitErr := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		return strings.TrimSpace(out.String()), 0, nil
	case errors.As(waitErr, &exitErr):
		return strings.TrimSpace(out.String()), exitErr.ExitCode(), nil
	default:
		return strings.TrimSpace(out.String()), -1, nil
	}
}

// RebootRemediator restarts the machine by running a configured command.
type RebootRemediator struct {
	*BaseRemediator
	config RebootConfig

	runner CommandRunner
}

// NewRebootRemediator creates a reboot remediator with the given configuration.
func NewRebootRemediator(config RebootConfig) (*RebootRemediator, error) {
	config.Command = strings.TrimSpace(config.Command)
	if config.Command == "" {
		return nil, fmt.Errorf("invalid reboot config: command is required")
	}

	base, err := NewBaseRemediator("reboot")
	if err != nil {
		return nil, fmt.Errorf("failed to create base remediator: %w", err)
	}

	remediator := &RebootRemediator{
		BaseRemediator: base,
		config:         config,
		runner:         &shellRunner{},
	}

	if err := base.SetRecoverFunc(remediator.reboot); err != nil {
		return nil, fmt.Errorf("failed to set recover function: %w", err)
	}

	return remediator, nil
}

// SetCommandRunner sets a custom command runner (useful for testing).
func (r *RebootRemediator) SetCommandRunner(runner CommandRunner) {
	r.runner = runner
}

// Command returns the configured reboot command line.
func (r *RebootRemediator) Command() string {
	return r.config.Command
}

// IsDryRun reports whether the remediator only logs.
func (r *RebootRemediator) IsDryRun() bool {
	return r.config.DryRun
}

func (r *RebootRemediator) reboot(ctx context.Context) error {
	if r.config.DryRun {
		r.logInfof("DRY-RUN: Would execute reboot command: %s", r.config.Command)
		return nil
	}

	r.logWarnf("Executing reboot command: %s", r.config.Command)

	output, exitCode, err := r.runner.Run(ctx, r.config.Command)
	if err != nil {
		return fmt.Errorf("failed to start %q: %w", r.config.Command, err)
	}

	if exitCode != 0 {
		r.logWarnf("Reboot command exited with code %d: %s", exitCode, output)
	}
	return nil
}
