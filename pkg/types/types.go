// Package types defines the core interfaces and types for displaywatcher.
package types

import (
	"context"
	"time"
)

// HealthProbe reports whether the display arrangement is in its known-good state.
type HealthProbe interface {
	// Check runs the probe once. A non-nil error means the probe itself failed
	// and the returned bool carries no meaning.
	Check(ctx context.Context) (bool, error)
}

// AttemptCounter is the durable count of consecutive reboot attempts.
type AttemptCounter interface {
	// Read returns the stored count, or 0 when nothing has been stored yet.
	Read() (int, error)

	// Write replaces the stored count.
	Write(count int) error
}

// Recoverer performs the recovery action (a system reboot).
// It is fire-and-forget: a nil error only means the action was issued.
type Recoverer interface {
	Recover(ctx context.Context) error
}

// Notifier sends a notification to the configured recipient.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Exporter publishes the report of a finished run (metrics, journal).
type Exporter interface {
	ExportRun(ctx context.Context, report *RunReport) error
}

// NotificationKind identifies which message is sent.
type NotificationKind string

const (
	// NotificationReboot is sent right before a reboot is issued.
	NotificationReboot NotificationKind = "reboot"

	// NotificationMaxReboots is sent when the attempt ceiling is reached.
	NotificationMaxReboots NotificationKind = "max-reboots"

	// NotificationError is sent by the runner when a run fails.
	NotificationError NotificationKind = "error"
)

// Notification is a single outbound message.
type Notification struct {
	Kind NotificationKind

	// Attempts is the attempt count the message refers to.
	Attempts int

	// MaxReboots is the configured ceiling.
	MaxReboots int

	// Message is free text, used by NotificationError.
	Message string
}

// Outcome is the result of one decision cycle.
type Outcome string

const (
	// OutcomeAccepted means the display positions were correct.
	OutcomeAccepted Outcome = "accepted"

	// OutcomeRetriedReboot means a reboot was issued.
	OutcomeRetriedReboot Outcome = "retried-reboot"

	// OutcomeGaveUp means the attempt ceiling was reached.
	OutcomeGaveUp Outcome = "gave-up"

	// OutcomeRunError means the decision pipeline itself failed.
	OutcomeRunError Outcome = "run-error"
)

// AllOutcomes lists every outcome in a stable order.
var AllOutcomes = []Outcome{OutcomeAccepted, OutcomeRetriedReboot, OutcomeGaveUp, OutcomeRunError}

// Succeeded reports whether the outcome maps to a clean process exit.
func (o Outcome) Succeeded() bool {
	switch o {
	case OutcomeAccepted, OutcomeRetriedReboot, OutcomeGaveUp:
		return true
	default:
		return false
	}
}

// RunReport summarizes a finished run for exporters.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Hostname   string
	Outcome    Outcome

	// Healthy is nil when the probe did not produce a verdict.
	Healthy *bool

	// PreviousAttempts is the counter value read during the run, -1 if never read.
	PreviousAttempts int

	// Attempts is the counter value after the run, -1 if unknown.
	Attempts int

	MaxReboots   int
	ErrorKind    ErrorKind
	ErrorMessage string
	DryRun       bool
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
