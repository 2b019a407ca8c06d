package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"net/url"
)

// Mailer delivers account e-mails. The verification link is the only message the app sends.
type Mailer interface {
	SendVerification(ctx context.Context, email, username, token string) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Pass      string
	From      string
	PublicURL string
}

var verificationTemplate = template.Must(template.New("verification").Parse(`<p>Hi {{.Username}},</p>
<p>Confirm your e-mail to start making predictions:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link is valid for 24 hours.</p>`))

type smtpMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func verificationLink(publicURL, token string) string {
	return fmt.Sprintf("%s/api/auth/verify?token=%s", publicURL, url.QueryEscape(token))
}

func (m *smtpMailer) SendVerification(ctx context.Context, email, username, token string) error {
	var body bytes.Buffer
	err := verificationTemplate.Execute(&body, struct {
		Username string
		Link     string
	}{Username: username, Link: verificationLink(m.cfg.PublicURL, token)})
	if err != nil {
		return fmt.Errorf("failed to render verification e-mail: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.send(email, "Confirm your e-mail", body.String())
}

func (m *smtpMailer) send(to, subject, body string) error {
	msg := []byte("To: " + to + "\r\n" +
		"From: " + m.cfg.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	tlsConfig := &tls.Config{ServerName: m.cfg.Host}

	var client *smtp.Client
	if m.cfg.Port == 465 {
		// Прямое TLS-соединение
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial: %w", err)
		}
		client, err = smtp.NewClient(conn, m.cfg.Host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp client: %w", err)
		}
	} else {
		// STARTTLS
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	defer client.Quit()

	if m.cfg.User != "" {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

// logMailer is used when SMTP is not configured; the link ends up in the logs.
type logMailer struct {
	publicURL string
	logger    *slog.Logger
}

func NewLogMailer(publicURL string, logger *slog.Logger) Mailer {
	return &logMailer{publicURL: publicURL, logger: logger}
}

func (m *logMailer) SendVerification(_ context.Context, email, username, token string) error {
	m.logger.Info("verification e-mail not sent, SMTP is not configured",
		slog.String("email", email),
		slog.String("username", username),
		slog.String("link", verificationLink(m.publicURL, token)))
	return nil
}
