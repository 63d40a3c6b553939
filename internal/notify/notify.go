// Package notify delivers outbound email messages.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Message is one outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Dialer is the part of *gomail.Dialer the SMTP sender uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig holds the SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends messages through an SMTP relay. It opens one connection
// per message and does not retry.
type SMTPSender struct {
	dialer Dialer
	from   string
}

// NewSMTP builds a sender backed by a gomail dialer.
func NewSMTP(cfg SMTPConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return NewSMTPWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), from)
}

// NewSMTPWithDialer builds a sender around an existing dialer.
func NewSMTPWithDialer(dialer Dialer, from string) *SMTPSender {
	return &SMTPSender{dialer: dialer, from: from}
}

// Send delivers msg. The context is checked before dialing; gomail itself
// has no cancellation.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. It is meant
// for local development with MAIL_TRANSPORT=log.
type LogSender struct {
	logger *slog.Logger
}

// NewLog builds a LogSender.
func NewLog(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs msg and never fails.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email not sent (log transport)",
		"to", msg.To,
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
	)
	return nil
}
