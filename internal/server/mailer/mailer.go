// Package mailer delivers login links over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer sends the magic-link email.
type Mailer interface {
	SendLoginLink(ctx context.Context, to, link string, ttl time.Duration) error
}

// SMTPConfig carries the outgoing mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// dialAndSend is a seam for tests.
var dialAndSend = func(d *gomail.Dialer, m ...*gomail.Message) error {
	return d.DialAndSend(m...)
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
	<p>Click the link below to sign in to Cloud Drive.</p>
	<p><a href="{{.Link}}">Sign in</a></p>
	<p>The link can be used once and expires in {{.TTL}}.</p>
	<p>If you did not request it, ignore this email.</p>
</body>
</html>`))

func renderLogin(link string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	if err := loginTemplate.Execute(&buf, struct {
		Link string
		TTL  time.Duration
	}{link, ttl}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *SMTPMailer) SendLoginLink(ctx context.Context, to, link string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := renderLogin(link, ttl)
	if err != nil {
		return fmt.Errorf("render login email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your Cloud Drive sign-in link")
	m.SetBody("text/plain", fmt.Sprintf("Sign in to Cloud Drive: %s\nThe link expires in %s.\n", link, ttl))
	m.AddAlternative("text/html", body)

	if err := dialAndSend(s.dialer, m); err != nil {
		return fmt.Errorf("send login email: %w", err)
	}
	return nil
}
