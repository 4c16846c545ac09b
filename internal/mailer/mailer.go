// Package mailer sends account-lifecycle emails over SMTP. Callers dispatch
// sends in a goroutine and only log failures; a lost email never fails the
// operation that triggered it.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
)

type Mailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		host:     host,
		username: username,
		password: password,
		from:     from,
	}
}

// SendVerificationOTP mails the email-verification code issued at registration.
func (m *Mailer) SendVerificationOTP(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(`
		<h1>Verify your email</h1>
		<p>Your verification code is:</p>
		<h2>%s</h2>
		<p>Enter this code in the app to activate your account.</p>
	`, code)
	return m.send(ctx, email, "Email Verification", body)
}

// SendPasswordResetOTP mails the code required to reset a forgotten password.
func (m *Mailer) SendPasswordResetOTP(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(`
		<h1>Reset your password</h1>
		<p>Your password reset code is:</p>
		<h2>%s</h2>
		<p>If you did not request this, you can ignore this email.</p>
	`, code)
	return m.send(ctx, email, "Password Reset", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	mail := mailyak.New(m.addr, smtp.PlainAuth("", m.username, m.password, m.host))
	mail.To(to)
	mail.From(m.from)
	mail.Subject(subject)
	mail.HTML().Set(htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send %q email: %w", subject, err)
		}
	}
	return nil
}
