package service

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers a confirmation code to a user's email address. The
// transport is a boundary concern; the auth service only knows this
// interface.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, email, username, code string) error
}

type smtpMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host, port, user, pass, from string) Mailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &smtpMailer{
		addr: host + ":" + port,
		auth: auth,
		from: from,
	}
}

func (m *smtpMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	subject := "Your confirmation code"
	body := fmt.Sprintf(
		"Hi %s!\nYour confirmation code: %s\n",
		username, code,
	)
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, email, subject, body,
	)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

// logMailer prints the code instead of sending it. Development only.
type logMailer struct{}

func NewLogMailer() Mailer {
	return logMailer{}
}

func (logMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	log.Printf("confirmation code for %s <%s>: %s", username, email, code)
	return nil
}
