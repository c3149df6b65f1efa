package mail

import (
	"context"
	"errors"

	gomail "gopkg.in/mail.v2"

	"github.com/spec-kit/campus-helpdesk/internal/config"
)

// ErrNotConfigured signals that no SMTP transport is available. Callers
// should record the delivery as skipped rather than failed.
var ErrNotConfigured = errors.New("smtp transport not configured")

// Mailer delivers a single email. Implementations must be safe for
// concurrent use by the notification dispatcher.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// SMTPMailer sends mail through a gomail dialer. A nil dialer models an
// unconfigured transport and always returns ErrNotConfigured.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from SMTP settings. When the settings are
// incomplete the mailer stays unconfigured instead of failing.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{from: cfg.From}
	if cfg.Configured() {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// Send delivers one message, honoring context cancellation before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, text, html string) error {
	if m.dialer == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	if html != "" {
		msg.AddAlternative("text/html", html)
	}
	return m.dialer.DialAndSend(msg)
}
