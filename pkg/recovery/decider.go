// Package recovery decides, once per invocation, whether to accept the current
// display arrangement, retry by rebooting, or give up.
//
// The only state carried between invocations is the attempt counter. It is
// always written before the reboot is issued, so the next boot sees the
// incremented value even if the reboot kills this process immediately.
package recovery

import (
	"context"
	"fmt"

	"github.com/supporttools/displaywatcher/pkg/types"
)

// Logger provides optional logging functionality for the decider.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Result describes one decision cycle.
type Result struct {
	Outcome types.Outcome

	// Healthy is nil when the probe failed.
	Healthy *bool

	// PreviousAttempts is the counter value read, -1 if it was never read.
	PreviousAttempts int

	// Attempts is the counter value after the cycle, -1 if it is unknown.
	Attempts int
}

// Decider is the recovery state machine.
type Decider struct {
	probe     types.HealthProbe
	counter   types.AttemptCounter
	notifier  types.Notifier
	recoverer types.Recoverer

	maxReboots int
	logger     Logger
}

// NewDecider wires the collaborators. log may be nil.
func NewDecider(maxReboots int, probe types.HealthProbe, counter types.AttemptCounter,
	notifier types.Notifier, recoverer types.Recoverer, log Logger) (*Decider, error) {
	if maxReboots < 0 {
		return nil, fmt.Errorf("maxReboots must be non-negative, got %d", maxReboots)
	}
	if probe == nil {
		return nil, fmt.Errorf("health probe cannot be nil")
	}
	if counter == nil {
		return nil, fmt.Errorf("attempt counter cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier cannot be nil")
	}
	if recoverer == nil {
		return nil, fmt.Errorf("recoverer cannot be nil")
	}

	return &Decider{
		probe:      probe,
		counter:    counter,
		notifier:   notifier,
		recoverer:  recoverer,
		maxReboots: maxReboots,
		logger:     log,
	}, nil
}

// MaxReboots returns the configured attempt ceiling.
func (d *Decider) MaxReboots() int {
	return d.maxReboots
}

// Decide runs one cycle. The returned Result is never nil. A non-nil error
// means the outcome is types.OutcomeRunError and carries a probe or storage
// error kind.
func (d *Decider) Decide(ctx context.Context) (*Result, error) {
	result := &Result{PreviousAttempts: -1, Attempts: -1}

	healthy, err := d.probe.Check(ctx)
	if err != nil {
		result.Outcome = types.OutcomeRunError
		return result, withKind(types.ErrorKindProbe, "check display positions", err)
	}
	result.Healthy = &healthy

	attempts, err := d.counter.Read()
	if err != nil {
		result.Outcome = types.OutcomeRunError
		return result, withKind(types.ErrorKindStorage, "read attempt counter", err)
	}
	result.PreviousAttempts = attempts

	switch {
	case healthy:
		if err := d.counter.Write(0); err != nil {
			result.Outcome = types.OutcomeRunError
			return result, withKind(types.ErrorKindStorage, "reset attempt counter", err)
		}
		result.Attempts = 0
		result.Outcome = types.OutcomeAccepted
		d.logInfof("Display positions correct, counter reset (was %d)", attempts)

	case attempts < d.maxReboots:
		next := attempts + 1
		if err := d.counter.Write(next); err != nil {
			result.Outcome = types.OutcomeRunError
			return result, withKind(types.ErrorKindStorage, "record reboot attempt", err)
		}
		result.Attempts = next
		result.Outcome = types.OutcomeRetriedReboot
		d.logWarnf("Display positions incorrect, rebooting (attempt %d of %d)", next, d.maxReboots)

		d.notify(ctx, types.Notification{
			Kind:       types.NotificationReboot,
			Attempts:   next,
			MaxReboots: d.maxReboots,
		})

		if err := d.recoverer.Recover(ctx); err != nil {
			d.logErrorf("Reboot could not be issued: %v", err)
		}

	default:
		if err := d.counter.Write(0); err != nil {
			result.Outcome = types.OutcomeRunError
			return result, withKind(types.ErrorKindStorage, "reset attempt counter after giving up", err)
		}
		result.Attempts = 0
		result.Outcome = types.OutcomeGaveUp
		d.logErrorf("Display positions incorrect after %d reboot attempts, giving up", attempts)

		d.notify(ctx, types.Notification{
			Kind:       types.NotificationMaxReboots,
			Attempts:   attempts,
			MaxReboots: d.maxReboots,
		})
	}

	return result, nil
}

func (d *Decider) notify(ctx context.Context, n types.Notification) {
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logErrorf("Failed to send %s notification: %v", n.Kind, err)
	}
}

// withKind keeps an existing error kind and tags untyped errors with kind.
func withKind(kind types.ErrorKind, op string, err error) error {
	if types.KindOf(err) != types.ErrorKindNone {
		return err
	}
	return types.NewError(kind, op, err)
}

func (d *Decider) logInfof(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Infof(format, args...)
	}
}

func (d *Decider) logWarnf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Warnf(format, args...)
	}
}

func (d *Decider) logErrorf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Errorf(format, args...)
	}
}
