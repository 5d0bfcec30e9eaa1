package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jordan-wright/email"
)

// Sender delivers one HTML email.
type Sender interface {
	SendHTML(ctx context.Context, to, subject string, html []byte) error
}

// SMTPConfig configures the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender sends emails via SMTP
type SMTPSender struct {
	cfg  SMTPConfig
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSMTPSender creates a sender for cfg. Without a host every send fails.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendHTML sends the message and gives up after the configured timeout or
// when ctx ends, whichever comes first.
func (s *SMTPSender) SendHTML(ctx context.Context, to, subject string, html []byte) error {
	if s.cfg.Host == "" {
		return errors.New("SMTP_HOST is not configured")
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.HTML = html

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.send(e, addr, auth)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Errorw("[Mail] SMTP send failed", "to", to, "addr", addr, "error", err)
			return err
		}
		log.Infow("[Mail] email sent", "to", to, "addr", addr)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}
