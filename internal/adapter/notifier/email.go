package notifier

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"
)

// EmailTransport delivers outcome notifications over SMTP.
type EmailTransport struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmail(host string, port int, username, password, from string) *EmailTransport {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.TLSConfig = &tls.Config{ServerName: host}

	return &EmailTransport{
		dialer: dialer,
		from:   from,
	}
}

func (e *EmailTransport) Name() string { return "email" }

func (e *EmailTransport) Send(ctx context.Context, to []string, subject, body string, html bool) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", e.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("X-Mailer", "custos")
	if html {
		msg.SetBody("text/html", body)
	} else {
		msg.SetBody("text/plain", body)
	}

	// gomail has no context support; run the send on the side so the
	// dispatcher's timeout still bounds a stuck SMTP conversation.
	done := make(chan error, 1)
	go func() { done <- e.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}
