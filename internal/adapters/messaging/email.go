package messaging

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/pkg/logger"
)

const defaultDialTimeout = 10 * time.Second

// EmailConfig holds SMTP configuration.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	From     string
	Timeout  time.Duration
}

// EmailMessenger delivers notifications over SMTP.
type EmailMessenger struct {
	cfg      EmailConfig
	renderer *Renderer
	logger   logger.Logger
}

// NewEmailMessenger creates a messenger for cfg.
func NewEmailMessenger(cfg EmailConfig, l logger.Logger) *EmailMessenger {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDialTimeout
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &EmailMessenger{cfg: cfg, renderer: NewRenderer(), logger: l}
}

// Send renders d and delivers it with an HTML body and plain text fallback.
func (s *EmailMessenger) Send(ctx context.Context, d model.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.renderer.Render(d)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", d.Recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	dialer := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	dialer.Timeout = s.cfg.Timeout

	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s: %w", d.Recipient, err)
	}
	s.logger.Debug(ctx, "email sent",
		logger.String("to", d.Recipient),
		logger.String("subject", msg.Subject),
	)
	return nil
}
