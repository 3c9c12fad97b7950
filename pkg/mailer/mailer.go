// Package mailer delivers confirmation codes over SMTP.
package mailer

import (
	"fmt"
	"time"

	mail "github.com/go-mail/mail/v2"
)

// Mailer wraps an SMTP dialer and the sender address stamped on outgoing
// mail.
type Mailer struct {
	dialer *mail.Dialer
	sender string
}

// New creates a Mailer for the given SMTP server.
func New(host string, port int, username, password, sender string) Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return Mailer{
		dialer: dialer,
		sender: sender,
	}
}

// SendConfirmationCode mails a signup confirmation code to the recipient.
// It satisfies services.CodeSender for brokerless deployments.
func (m Mailer) SendConfirmationCode(email, username, code string) error {
	msg := mail.NewMessage()
	msg.SetHeader("To", email)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", "Your confirmation code")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour confirmation code is: %s\n\nExchange it at /api/v1/auth/token for an access token.\n", username, code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send confirmation email to %s: %w", email, err)
	}
	return nil
}
