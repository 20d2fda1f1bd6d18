// Package notifier delivers verification and password reset links to account holders.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/landlordy-api/shared/mailer"
)

const (
	verificationSubject  = "Verify your Landlordy account"
	passwordResetSubject = "Reset your Landlordy password"
)

// Links builds the frontend URLs embedded in notifications.
type Links struct {
	FrontendURL string
}

// Verification returns the link that confirms an email address.
func (l Links) Verification(token string) string {
	return strings.TrimRight(l.FrontendURL, "/") + "?verify=" + url.QueryEscape(token)
}

// PasswordReset returns the link to the password reset form.
func (l Links) PasswordReset(token string) string {
	return strings.TrimRight(l.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// Sender sends a rendered email.
type Sender interface {
	Send(email mailer.Email) error
}

// EmailNotifier renders token links into emails and sends them over SMTP.
type EmailNotifier struct {
	sender                 Sender
	links                  Links
	verificationExpiresIn  time.Duration
	passwordResetExpiresIn time.Duration
}

func NewEmailNotifier(
	sender Sender,
	links Links,
	verificationExpiresIn time.Duration,
	passwordResetExpiresIn time.Duration,
) *EmailNotifier {
	return &EmailNotifier{
		sender:                 sender,
		links:                  links,
		verificationExpiresIn:  verificationExpiresIn,
		passwordResetExpiresIn: passwordResetExpiresIn,
	}
}

func (n *EmailNotifier) SendEmailVerification(ctx context.Context, to, token, name string) error {
	data := templateData{
		Name:      name,
		Link:      n.links.Verification(token),
		ExpiresIn: humanDuration(n.verificationExpiresIn),
	}
	email, err := render(to, verificationSubject, data, verificationHTML, verificationText)
	if err != nil {
		return err
	}
	return n.send(ctx, email)
}

func (n *EmailNotifier) SendPasswordReset(ctx context.Context, to, token, name string) error {
	data := templateData{
		Name:      name,
		Link:      n.links.PasswordReset(token),
		ExpiresIn: humanDuration(n.passwordResetExpiresIn),
	}
	email, err := render(to, passwordResetSubject, data, passwordResetHTML, passwordResetText)
	if err != nil {
		return err
	}
	return n.send(ctx, email)
}

// send returns when the SMTP exchange finishes or ctx is done, whichever
// comes first. An abandoned exchange keeps running in the background.
func (n *EmailNotifier) send(ctx context.Context, email mailer.Email) error {
	done := make(chan error, 1)
	go func() {
		done <- n.sender.Send(email)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}

// templateExecutor is satisfied by both html/template and text/template.
type templateExecutor interface {
	Execute(wr io.Writer, data any) error
}

func render(to, subject string, data templateData, html, text templateExecutor) (mailer.Email, error) {
	var htmlBody, textBody bytes.Buffer
	if err := html.Execute(&htmlBody, data); err != nil {
		return mailer.Email{}, fmt.Errorf("render %s html: %w", subject, err)
	}
	if err := text.Execute(&textBody, data); err != nil {
		return mailer.Email{}, fmt.Errorf("render %s text: %w", subject, err)
	}

	return mailer.Email{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: htmlBody.String(),
		Body:     textBody.String(),
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// LogNotifier writes notifications to the log instead of delivering them.
// It is meant for local development and is rejected in production.
type LogNotifier struct {
	logger *zerolog.Logger
	links  Links
}

func NewLogNotifier(logger *zerolog.Logger, links Links) *LogNotifier {
	return &LogNotifier{logger: logger, links: links}
}

func (n *LogNotifier) SendEmailVerification(_ context.Context, to, token, name string) error {
	n.logger.Info().
		Str("to", to).
		Str("name", name).
		Str("link", n.links.Verification(token)).
		Msg("verification email")
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, to, token, name string) error {
	n.logger.Info().
		Str("to", to).
		Str("name", name).
		Str("link", n.links.PasswordReset(token)).
		Msg("password reset email")
	return nil
}
