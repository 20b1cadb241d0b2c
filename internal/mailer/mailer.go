// Package mailer is the outbound-email collaborator. Delivery failure is
// never allowed to fail the operation that triggered the mail; callers log
// and move on.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nilesh-agrahari/SecureFileShare/internal/config"
)

type Sender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// SMTPSender delivers through a plain SMTP relay. There is no mail client
// library in use anywhere else in the service, so the stdlib dialer is
// enough behind the interface.
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(_ context.Context, to string, subject string, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender stands in when no relay is configured: the message is written
// to the log instead of the wire. Useful in development, where the signup
// response already carries the verification link.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to string, subject string, body string) error {
	s.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("mail delivery skipped (no relay configured)")
	return nil
}
