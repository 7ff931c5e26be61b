// Package mail defines the outbound email collaborator and ships two
// implementations: an SMTP sender for deployments and a log-only sender
// for development.
//
// Sends are fire-and-forget from the flows' perspective: a failed send is
// logged by the caller and never rolls back the token that was issued for
// it — the resend flows exist to recover.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"net/url"

	"github.com/caarlos0/env/v11"
)

// Sender delivers the three transactional messages the flows produce.
type Sender interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
	SendWelcomeEmail(ctx context.Context, email string) error
}

// SMTPConfig locates the outbound relay and the frontend the links
// point at.
type SMTPConfig struct {
	Host        string `env:"CREDO_SMTP_HOST"`
	Port        string `env:"CREDO_SMTP_PORT" envDefault:"587"`
	Username    string `env:"CREDO_SMTP_USER"`
	Password    string `env:"CREDO_SMTP_PASSWORD"`
	From        string `env:"CREDO_SMTP_FROM"`
	FrontendURL string `env:"CREDO_FRONTEND_URL"`
}

// SMTPConfigFromEnv loads an SMTPConfig from CREDO_SMTP_* environment
// variables.
func SMTPConfigFromEnv() (SMTPConfig, error) {
	var cfg SMTPConfig
	if err := env.Parse(&cfg); err != nil {
		return SMTPConfig{}, err
	}
	return cfg, nil
}

// SMTPSender renders HTML messages and delivers them over authenticated
// SMTP. Safe for concurrent use.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender validates the config and returns a ready sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	if _, err := url.Parse(cfg.FrontendURL); err != nil {
		return nil, fmt.Errorf("invalid frontend url: %w", err)
	}
	return &SMTPSender{cfg: cfg}, nil
}

// SendVerificationEmail mails a verify-email link carrying the token.
func (s *SMTPSender) SendVerificationEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.FrontendURL, url.QueryEscape(token))
	body, err := render(verificationTmpl, link)
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, "Verify your email address", body)
}

// SendPasswordResetEmail mails a reset-password link carrying the token.
func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, url.QueryEscape(token))
	body, err := render(resetTmpl, link)
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, "Reset your password", body)
}

// SendWelcomeEmail mails the post-verification welcome note.
func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, email string) error {
	body, err := render(welcomeTmpl, s.cfg.FrontendURL)
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, "Welcome aboard", body)
}

func (s *SMTPSender) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte("From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", s.cfg.Host, err)
	}
	return nil
}

func render(tmpl *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return buf.String(), nil
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`<p>Confirm your email address by following this link:</p><p><a href="{{.Link}}">{{.Link}}</a></p><p>The link expires in 24 hours.</p>`))
	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>A password reset was requested for your account. Follow this link to choose a new password:</p><p><a href="{{.Link}}">{{.Link}}</a></p><p>If you did not request this, you can ignore this message.</p>`))
	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`<p>Your email is verified — welcome!</p><p><a href="{{.Link}}">{{.Link}}</a></p>`))
)

// LogSender writes would-be emails to a structured logger. Development
// only; tokens end up in the logs.
type LogSender struct {
	Logger *slog.Logger
}

// SendVerificationEmail logs the verification token.
func (s LogSender) SendVerificationEmail(ctx context.Context, email, token string) error {
	s.logger().InfoContext(ctx, "verification email", "to", email, "token", token)
	return nil
}

// SendPasswordResetEmail logs the reset token.
func (s LogSender) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	s.logger().InfoContext(ctx, "password reset email", "to", email, "token", token)
	return nil
}

// SendWelcomeEmail logs the welcome note.
func (s LogSender) SendWelcomeEmail(ctx context.Context, email string) error {
	s.logger().InfoContext(ctx, "welcome email", "to", email)
	return nil
}

func (s LogSender) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
