package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/finance-insights/internal/config"
	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender delivers notifications via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Notify emails a notification to the user. It is fire-and-forget from the
// engine's point of view; the error is returned so the caller can log it.
func (s *Sender) Notify(ctx context.Context, user *models.User, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := buildEmail(s.cfg.SenderEmail, user, n)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send notification to %s: %v", user.Email, err)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"reference": n.Reference,
	}).Infof("Notification sent to %s: %s", user.Email, e.Subject)
	return nil
}

func buildEmail(from string, user *models.User, n models.Notification) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{user.Email}
	e.Subject = n.Title
	if n.Priority == models.PriorityHigh {
		e.Subject = "[Action needed] " + n.Title
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", user.Username)
	body.WriteString(n.Message)
	body.WriteString("\n\nBest regards,\nFinance Insights")
	e.Text = []byte(body.String())
	return e
}
