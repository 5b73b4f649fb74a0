package notify

import (
	"context"

	"wallet-ledger-go/internal/models"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Notifier delivers a transaction notification and returns the message id
type Notifier interface {
	Send(ctx context.Context, recipient string, params models.EmailNotification) (string, error)
}

// LogNotifier writes notifications to the log instead of sending them. It is
// used when no SMTP host is configured.
type LogNotifier struct {
	templates *Templates
}

func NewLogNotifier(templates *Templates) *LogNotifier {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &LogNotifier{templates: templates}
}

func (n *LogNotifier) Send(ctx context.Context, recipient string, params models.EmailNotification) (string, error) {
	subject, _, err := n.templates.Render(params)
	if err != nil {
		return "", err
	}

	messageId := ulid.Make().String()
	zap.L().Info("Notification (log only)",
		zap.String("message_id", messageId),
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("amount", params.Amount.String()),
		zap.String("new_balance", params.NewBalance.String()))
	return messageId, nil
}
