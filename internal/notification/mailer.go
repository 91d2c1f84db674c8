// Package notification holds the outgoing mail contract and its adapters.
package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Message is a plain-text e-mail.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer sends messages. Implementations must honour ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var errNoRecipients = errors.New("no recipients specified")

type logMailer struct {
	logger *zap.Logger
}

// NewLogMailer returns a Mailer that only logs what it would send. It is used
// when no SMTP host is configured.
func NewLogMailer(logger *zap.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errNoRecipients
	}
	m.logger.Info("mail not sent, smtp disabled",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
