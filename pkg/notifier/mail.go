package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/supporttools/displaywatcher/pkg/types"
)

// Logger provides optional logging functionality for notifiers.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Sender delivers a prepared message. This allows for mocking in tests.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// smtpSender delivers through a go-mail client.
type smtpSender struct {
	client *mail.Client
}

func (s *smtpSender) Send(ctx context.Context, msg *mail.Msg) error {
	return s.client.DialAndSendWithContext(ctx, msg)
}

// NewSMTPSender builds a Sender from the SMTP settings.
func NewSMTPSender(config types.SMTPConfig) (Sender, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
	}

	switch config.Encryption {
	case "tls":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		return nil, fmt.Errorf("unsupported smtp encryption %q", config.Encryption)
	}

	// Opportunistic TLS may end up on a plain connection, so credentials
	// must be accepted without encryption in both modes.
	if config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlainNoEnc),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}
	if config.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(config.Timeout))
	}
	if config.Debug {
		opts = append(opts, mail.WithDebugLog())
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client for %s:%d: %w", config.Host, config.Port, err)
	}
	return &smtpSender{client: client}, nil
}

// MailNotifier implements types.Notifier over SMTP.
type MailNotifier struct {
	hostname  string
	sender    types.MailAddress
	recipient types.MailAddress

	transport Sender
	now       func() time.Time
	logger    Logger
}

// NewMailNotifier creates a notifier from validated configuration. log may be nil.
func NewMailNotifier(config types.NotificationConfig, hostname string, log Logger) (*MailNotifier, error) {
	if hostname == "" {
		return nil, fmt.Errorf("hostname cannot be empty")
	}

	transport, err := NewSMTPSender(config.SMTP)
	if err != nil {
		return nil, err
	}

	return &MailNotifier{
		hostname:  hostname,
		sender:    config.Sender,
		recipient: config.Recipient,
		transport: transport,
		now:       time.Now,
		logger:    log,
	}, nil
}

// SetSender replaces the transport (useful for testing).
func (n *MailNotifier) SetSender(sender Sender) {
	n.transport = sender
}

// Notify renders and sends a single message.
func (n *MailNotifier) Notify(ctx context.Context, notification types.Notification) error {
	at := n.now()
	rendered := Compose(n.hostname, at, notification)

	msg, err := n.buildMessage(rendered, at)
	if err != nil {
		return types.NewError(types.ErrorKindNotification, "build message", err)
	}

	if err := n.transport.Send(ctx, msg); err != nil {
		return types.NewError(types.ErrorKindNotification, "send mail",
			fmt.Errorf("%s to %s: %w", notification.Kind, n.recipient.Email, err))
	}

	if n.logger != nil {
		n.logger.Infof("Sent %s notification to %s", notification.Kind, n.recipient.Email)
	}
	return nil
}

func (n *MailNotifier) buildMessage(rendered Message, at time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(n.sender.Name, n.sender.Email); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.sender.Email, err)
	}
	if err := msg.AddToFormat(n.recipient.Name, n.recipient.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", n.recipient.Email, err)
	}
	msg.Subject(rendered.Subject)
	msg.SetDateWithValue(at)
	msg.SetBodyString(mail.TypeTextPlain, rendered.Body)
	return msg, nil
}
