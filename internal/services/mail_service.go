package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"echonews/internal/config"

	"gopkg.in/gomail.v2"
)

var mailTemplate = template.Must(template.New("notification").Parse(
	`<p>{{.Message}}</p><p style="color:#888">You are receiving this because email notifications are enabled in your EchoNews preferences.</p>`,
))

// sender is the part of gomail.Dialer the mailer uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailService emails notifications to users who opted in.
type MailService struct {
	dialer sender
	from   string
}

func NewMailService(cfg config.SMTPConfig) *MailService {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	return &MailService{dialer: d, from: cfg.From}
}

func (s *MailService) Dispatch(_ context.Context, ev NotificationEvent) {
	if !ev.EmailOptIn || ev.RecipientEmail == "" {
		return
	}

	msg, err := s.buildMessage(ev)
	if err != nil {
		slog.Warn("failed to render notification email", "error", err, "notification_id", ev.NotificationID)
		return
	}

	go func() {
		if err := s.dialer.DialAndSend(msg); err != nil {
			slog.Warn("failed to send email", "to", ev.RecipientEmail, "error", err)
			return
		}
		slog.Info("email sent", "to", ev.RecipientEmail, "subject", ev.Subject)
	}()
}

func (s *MailService) buildMessage(ev NotificationEvent) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := mailTemplate.Execute(&body, ev); err != nil {
		return nil, fmt.Errorf("execute mail template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", ev.RecipientEmail)
	m.SetHeader("Subject", ev.Subject)
	m.SetBody("text/html", body.String())
	return m, nil
}
