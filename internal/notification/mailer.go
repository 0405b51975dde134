package notification

import (
	"fmt"
	"net/smtp"

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/dimasprabowo/procurement-management/pkg/logger"
)

// SMTPMailer delivers mail over plain SMTP with optional auth. It satisfies
// auth.Mailer and the notifier's delivery needs.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg internal.MailerConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		from: cfg.FromAddress,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// NoopMailer logs instead of sending. Used when no SMTP host is configured,
// which keeps local development and tests mail-free.
type NoopMailer struct{}

func (NoopMailer) Send(to, subject, _ string) error {
	logger.LoggerWrapper().Info("mail suppressed, no SMTP host configured", "to", to, "subject", subject)
	return nil
}
