package remediators

import (
	"context"
)

// RecoverFunc performs the actual recovery action. It should return nil on
// success or an error describing why the action could not be issued.
type RecoverFunc func(ctx context.Context) error

// Logger provides optional logging functionality for remediators.
type Logger interface {
	// Infof logs an informational message with formatting
	Infof(format string, args ...interface{})

	// Warnf logs a warning message with formatting
	Warnf(format string, args ...interface{})

	// Errorf logs an error message with formatting
	Errorf(format string, args ...interface{})
}
