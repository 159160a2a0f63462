package notification

import (
	"context"

	"mindhaven/metrics"
	"mindhaven/models"
	"mindhaven/services/identity"

	"go.uber.org/zap"
)

// LogDispatcher writes notifications to the log. Used in development.
type LogDispatcher struct {
	Logger *zap.Logger
}

func (d *LogDispatcher) Notify(ctx context.Context, recipientID string, template models.TemplateKey, params identity.Params) error {
	msg, err := Compose(recipientID, template, params)
	if err != nil {
		return err
	}
	return d.Deliver(ctx, msg)
}

func (d *LogDispatcher) Deliver(_ context.Context, msg models.NotificationMessage) error {
	d.Logger.Info("notification",
		zap.String("recipientID", msg.RecipientID),
		zap.String("template", string(msg.Template)),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body))
	metrics.RecordNotification(string(msg.Template), nil)
	return nil
}
