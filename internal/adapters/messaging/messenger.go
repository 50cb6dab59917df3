// Package messaging delivers notification records to candidates.
package messaging

import (
	"context"

	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/pkg/logger"
)

// Messenger hands one delivery to an outbound channel.
type Messenger interface {
	Send(ctx context.Context, d model.Delivery) error
}

// LogMessenger writes deliveries to the log. Used when no SMTP host is configured.
type LogMessenger struct {
	renderer *Renderer
	logger   logger.Logger
}

// NewLogMessenger creates a LogMessenger.
func NewLogMessenger(l logger.Logger) *LogMessenger {
	if l == nil {
		l = logger.NewNop()
	}
	return &LogMessenger{renderer: NewRenderer(), logger: l}
}

// Send logs the rendered subject and plain-text body.
func (m *LogMessenger) Send(ctx context.Context, d model.Delivery) error {
	msg, err := m.renderer.Render(d)
	if err != nil {
		return err
	}
	m.logger.Info(ctx, "notification delivered to log",
		logger.String("to", d.Recipient),
		logger.String("notification", d.Record.ID),
		logger.String("subject", msg.Subject),
		logger.String("body", msg.Text),
	)
	return nil
}
