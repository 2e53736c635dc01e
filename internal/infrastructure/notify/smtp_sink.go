package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
)

var ErrSMTPNotConfigured = errors.New("smtp host is not configured")

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSink sends notifications as plain-text mail.
type SMTPSink struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSink(cfg SMTPConfig) (*SMTPSink, error) {
	if cfg.Host == "" {
		return nil, ErrSMTPNotConfigured
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &SMTPSink{cfg: cfg, send: smtp.SendMail}, nil
}

// Deliver sends one message. smtp.SendMail has no context support, so ctx is
// only checked before dialing.
func (s *SMTPSink) Deliver(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{recipient}, buildMessage(s.cfg.From, recipient, subject, body)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, body))
}
