package notifier

import (
	"context"
	"strings"
	"time"

	"github.com/supporttools/displaywatcher/pkg/types"
)

// LogNotifier only logs notifications. It is installed when mail is disabled.
type LogNotifier struct {
	hostname string
	logger   Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(hostname string, log Logger) *LogNotifier {
	return &LogNotifier{hostname: hostname, logger: log}
}

// Notify logs the rendered subject and body.
func (n *LogNotifier) Notify(ctx context.Context, notification types.Notification) error {
	if n.logger == nil {
		return nil
	}
	msg := Compose(n.hostname, time.Now(), notification)
	n.logger.Infof("Notifications disabled, not sending %q: %s",
		msg.Subject, strings.ReplaceAll(strings.TrimSpace(msg.Body), "\n", " | "))
	return nil
}

// New returns the notifier selected by config.
func New(config types.NotificationConfig, hostname string, log Logger) (types.Notifier, error) {
	if !config.Enabled {
		return NewLogNotifier(hostname, log), nil
	}
	return NewMailNotifier(config, hostname, log)
}
