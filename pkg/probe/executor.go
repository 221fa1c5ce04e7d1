package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Maximum output size to prevent memory exhaustion (1MB)
const maxOutputSize = 1 * 1024 * 1024

// Executor runs the probe binary.
type Executor interface {
	// Execute runs command and returns stdout, stderr and the exit code.
	// err is non-nil only when the process could not be run to completion;
	// a non-zero exit code alone is not an error.
	Execute(ctx context.Context, command string, args []string) (stdout, stderr string, exitCode int, err error)
}

// commandExecutor implements Executor using os/exec
type commandExecutor struct{}

// NewExecutor returns the os/exec backed executor.
func NewExecutor() Executor {
	return &commandExecutor{}
}

// Execute runs the binary with the given arguments
func (e *commandExecutor) Execute(ctx context.Context, command string, args []string) (stdout, stderr string, exitCode int, err error) {
	cmd := exec.CommandContext(ctx, command, args...)

	var stdoutBuf, stderrBuf limitedBuffer
	stdoutBuf.limit = maxOutputSize
	stderrBuf.limit = maxOutputSize
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	execErr := cmd.Run()

	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()
	exitCode = getExitCode(execErr)

	if execErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout, stderr, exitCode, fmt.Errorf("probe interrupted: %w", ctxErr)
		}

		// Non-zero exit is reported through exitCode
		if exitCode > 0 {
			return stdout, stderr, exitCode, nil
		}

		return stdout, stderr, exitCode, fmt.Errorf("probe execution failed: %w", execErr)
	}

	return stdout, stderr, exitCode, nil
}

// getExitCode extracts the exit code from an exec error
func getExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}

// limitedBuffer is a buffer that stops accepting writes after reaching a size limit
type limitedBuffer struct {
	bytes.Buffer
	limit int
}

// Write implements io.Writer with a size limit
func (b *limitedBuffer) Write(p []byte) (n int, err error) {
	if b.limit > 0 && b.Len() >= b.limit {
		return len(p), nil
	}

	remaining := b.limit - b.Len()
	if b.limit > 0 && remaining < len(p) {
		_, err = b.Buffer.Write(p[:remaining])
		return len(p), err
	}

	return b.Buffer.Write(p)
}
