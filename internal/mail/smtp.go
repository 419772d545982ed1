// Package mail delivers account-activation messages. The account service
// depends only on the domain.Mailer interface; the SMTP transport here is one
// implementation of it.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/dmaia-dev/reelpick/internal/config"
)

// SMTPMailer sends activation mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg     config.SMTP
	baseURL string
}

// NewSMTPMailer creates a mailer for the given relay. baseURL is the public
// address of this deployment, used to build the activation link.
func NewSMTPMailer(cfg config.SMTP, baseURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, baseURL: strings.TrimRight(baseURL, "/")}
}

// SendActivation delivers the confirmation link for the given token.
func (m *SMTPMailer) SendActivation(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/activate/%s", m.baseURL, token)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	msg.WriteString("Subject: Confirm your Reelpick account\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString("Welcome to Reelpick!\r\n\r\n")
	msg.WriteString("Open the link below to activate your account:\r\n\r\n")
	msg.WriteString(link + "\r\n\r\n")
	msg.WriteString("If you did not sign up, you can ignore this message.\r\n")

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	// net/smtp has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

// LogMailer logs activation links instead of sending them. Used in
// development and tests when no SMTP relay is configured.
type LogMailer struct {
	baseURL string
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(baseURL string) *LogMailer {
	return &LogMailer{baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *LogMailer) SendActivation(ctx context.Context, email, token string) error {
	slog.Info("activation link issued",
		"email", email,
		"link", fmt.Sprintf("%s/activate/%s", m.baseURL, token),
	)
	return nil
}
