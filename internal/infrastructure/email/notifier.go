package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/failure"
	"VideoDigest/internal/ports"
)

// Options configures SMTP submission.
type Options struct {
	Server   string
	Port     int
	User     string
	Password string
	Sender   string
	Timeout  time.Duration
}

// sender delivers prepared messages; *mail.Client satisfies it.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Notifier emails one summary per item over STARTTLS with PLAIN auth.
type Notifier struct {
	opts    Options
	logger  *slog.Logger
	newSend func() (sender, error)
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier builds a notifier; the SMTP connection is opened per message.
func NewNotifier(opts Options, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := &Notifier{opts: opts, logger: logger}
	n.newSend = n.dialer
	return n
}

func (n *Notifier) dialer() (sender, error) {
	timeout := n.opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return mail.NewClient(n.opts.Server,
		mail.WithPort(n.opts.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.opts.User),
		mail.WithPassword(n.opts.Password),
		mail.WithTimeout(timeout),
	)
}

// Notify sends one message addressed to every recipient.
func (n *Notifier) Notify(ctx context.Context, recipients []string, details domain.ItemDetails) error {
	if len(recipients) == 0 {
		return nil
	}

	msg, err := n.buildMessage(recipients, details)
	if err != nil {
		return failure.Wrap(failure.ErrPermanent, "email", "build message", err)
	}

	client, err := n.newSend()
	if err != nil {
		return failure.Wrap(failure.ErrTransient, "email", "create smtp client", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return failure.Wrap(failure.ErrTransient, "email", "send", err)
	}

	n.logger.Info("sent email", "item_id", details.Item.ID, "recipients", len(recipients))
	return nil
}

func (n *Notifier) buildMessage(recipients []string, details domain.ItemDetails) (*mail.Msg, error) {
	rendered, err := Render(details)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.opts.Sender); err != nil {
		return nil, fmt.Errorf("sender %q: %w", n.opts.Sender, err)
	}
	if err := msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("recipients: %w", err)
	}
	msg.Subject(rendered.Subject)
	msg.SetBodyString(mail.TypeTextPlain, rendered.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, rendered.HTML)
	return msg, nil
}
