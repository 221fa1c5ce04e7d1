// Package probe runs the external display-position check and translates its
// output into a boolean verdict.
package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supporttools/displaywatcher/pkg/logger"
	"github.com/supporttools/displaywatcher/pkg/types"
)

// CommandProbe implements types.HealthProbe by executing a binary and looking
// up its trimmed stdout in an exact-match translation table.
type CommandProbe struct {
	command     string
	args        []string
	translation map[string]bool
	timeout     time.Duration

	executor Executor
	logger   logger.Logger
}

// NewCommandProbe creates a probe from validated configuration. log may be nil.
func NewCommandProbe(config types.ProbeConfig, log logger.Logger) (*CommandProbe, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("probe command cannot be empty")
	}
	if len(config.OutputTranslation) == 0 {
		return nil, fmt.Errorf("probe output translation table cannot be empty")
	}

	translation := make(map[string]bool, len(config.OutputTranslation))
	for k, v := range config.OutputTranslation {
		translation[k] = v
	}

	return &CommandProbe{
		command:     config.Command,
		args:        append([]string(nil), config.Args...),
		translation: translation,
		timeout:     config.Timeout,
		executor:    NewExecutor(),
		logger:      log,
	}, nil
}

// SetExecutor replaces the executor (useful for testing).
func (p *CommandProbe) SetExecutor(executor Executor) {
	p.executor = executor
}

// Check runs the probe once.
func (p *CommandProbe) Check(ctx context.Context) (bool, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	stdout, stderr, exitCode, err := p.executor.Execute(ctx, p.command, p.args)
	elapsed := time.Since(start)

	if err != nil {
		return false, types.NewError(types.ErrorKindProbe, "run probe",
			fmt.Errorf("%s: %w", p.command, err))
	}

	if exitCode != 0 {
		return false, types.NewError(types.ErrorKindProbe, "run probe",
			fmt.Errorf("%s exited with code %d (stderr: %q)", p.command, exitCode, strings.TrimSpace(stderr)))
	}

	output := strings.TrimSpace(stdout)
	correct, ok := p.translation[output]
	if !ok {
		return false, types.NewError(types.ErrorKindProbe, "translate probe output",
			fmt.Errorf("output %q of %s has no entry in the translation table", output, p.command))
	}

	if p.logger != nil {
		p.logger.Debugf("Probe %s returned %q -> positions correct: %v (took %v)", p.command, output, correct, elapsed)
	}

	return correct, nil
}
