package remediators

import (
	"context"
	"fmt"
)

// BaseRemediator provides common functionality for recoverer implementations.
// Concrete remediators embed this struct and set the recoverFunc to provide
// their specific action.
//
// BaseRemediator handles:
//   - Optional logging
//   - Panic recovery
//   - Context cancellation before the action starts
//
// Attempt counting is not tracked here. The count must survive the reboot it
// triggers, so it lives in the persisted counter owned by the decider.
type BaseRemediator struct {
	name string

	recoverFunc RecoverFunc
	logger      Logger
}

// NewBaseRemediator creates a new BaseRemediator with the specified name.
func NewBaseRemediator(name string) (*BaseRemediator, error) {
	if name == "" {
		return nil, fmt.Errorf("remediator name cannot be empty")
	}

	return &BaseRemediator{name: name}, nil
}

// SetRecoverFunc sets the function that performs the recovery action.
// This must be called before the remediator can be used.
func (b *BaseRemediator) SetRecoverFunc(fn RecoverFunc) error {
	if fn == nil {
		return fmt.Errorf("recoverFunc cannot be nil")
	}
	b.recoverFunc = fn
	return nil
}

// SetLogger sets an optional logger for the remediator.
// If not set, logging calls will be silently ignored.
func (b *BaseRemediator) SetLogger(logger Logger) {
	b.logger = logger
}

// GetName returns the remediator's name.
func (b *BaseRemediator) GetName() string {
	return b.name
}

// Recover runs the recovery action with panic recovery.
// This implements the types.Recoverer interface.
func (b *BaseRemediator) Recover(ctx context.Context) (err error) {
	if b.recoverFunc == nil {
		return fmt.Errorf("recoverFunc not set for remediator %s", b.name)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before recovery: %w", ctx.Err())
	default:
	}

	b.logInfof("Starting recovery")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during recovery: %v", r)
			b.logErrorf("Panic recovered: %v", r)
		}
	}()

	if err = b.recoverFunc(ctx); err != nil {
		b.logErrorf("Recovery failed: %v", err)
		return fmt.Errorf("recovery by %s failed: %w", b.name, err)
	}

	b.logInfof("Recovery action issued")
	return nil
}

// logInfof logs an informational message if a logger is configured.
func (b *BaseRemediator) logInfof(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Infof("[%s] "+format, append([]interface{}{b.name}, args...)...)
	}
}

// logWarnf logs a warning message if a logger is configured.
func (b *BaseRemediator) logWarnf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Warnf("[%s] "+format, append([]interface{}{b.name}, args...)...)
	}
}

// logErrorf logs an error message if a logger is configured.
func (b *BaseRemediator) logErrorf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Errorf("[%s] "+format, append([]interface{}{b.name}, args...)...)
	}
}
