// Package mailer renders account emails and delivers them through an
// asynchronous outbox.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type Email struct {
	ID      string
	To      string
	Subject string
	HTML    string
}

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@talknet>", email.ID))
	m.SetBody("text/html", email.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email %q: %w", email.Subject, err)
	}
	return nil
}

// LogSender stands in for SMTP in development. Only metadata is logged.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, email Email) error {
	s.logger.Info("email delivery skipped, no SMTP relay configured",
		"email_id", email.ID,
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}

func newEmail(to, subject, html string) Email {
	return Email{
		ID:      uuid.NewString(),
		To:      to,
		Subject: subject,
		HTML:    html,
	}
}
