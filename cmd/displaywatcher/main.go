// displaywatcher - checks the display arrangement and reboots a bounded number
// of times to recover it. Meant to be run periodically by a scheduler.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/supporttools/displaywatcher/pkg/logger"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// exitCodeError carries a process exit status out of a command.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

func main() {
	code := execute(os.Args[1:], os.Stdout, os.Stderr)
	if err := logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(&options{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "displaywatcher %s\n", Version)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Go Version: %s\n", runtime.Version())
	fmt.Fprintf(w, "  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
