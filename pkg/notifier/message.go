// Package notifier delivers displaywatcher notifications by mail.
package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/supporttools/displaywatcher/pkg/types"
)

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// Compose renders the subject and body for n. at is the local send time.
func Compose(hostname string, at time.Time, n types.Notification) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "At %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(&b, "Host %s\n", hostname)

	var subject string
	switch n.Kind {
	case types.NotificationReboot:
		subject = fmt.Sprintf("Notification of reboot on %s", hostname)
		b.WriteString("Was rebooted in an attempt to fix display arrangement issues.\n")
		fmt.Fprintf(&b, "Attempt %d of %d.\n", n.Attempts, n.MaxReboots)
	case types.NotificationMaxReboots:
		subject = fmt.Sprintf("Notification of max reboots on %s", hostname)
		fmt.Fprintf(&b, "Attempted reboots %d times, and has given up.\n", n.Attempts)
	default:
		subject = fmt.Sprintf("Notification message on %s", hostname)
		message := n.Message
		if message == "" {
			message = types.DefaultErrorMessage
		}
		fmt.Fprintf(&b, "Error Message: %s\n", message)
	}

	return Message{Subject: subject, Body: b.String()}
}
