package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushq/sis-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a mailer implementation from configuration.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled {
		return NewConsole(logger)
	}
	switch cfg.Provider {
	case "sendgrid":
		return NewSendGrid(cfg.SendGridKey, cfg.FromName, cfg.FromEmail)
	default:
		return NewConsole(logger)
	}
}

// Console logs messages instead of delivering them. Used in development
// and whenever mail delivery is disabled.
type Console struct {
	logger *zap.Logger
}

// NewConsole constructs a console mailer.
func NewConsole(logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{logger: logger}
}

// Send writes the message to the log.
func (m *Console) Send(_ context.Context, msg Message) error {
	m.logger.Info("email (console)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody),
	)
	return nil
}
