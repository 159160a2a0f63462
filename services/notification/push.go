package notification

import (
	"context"
	"fmt"

	"mindhaven/metrics"
	"mindhaven/models"
	"mindhaven/services/identity"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// FCMSender is the part of the FCM messaging client the push dispatcher uses.
type FCMSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenLookup resolves a principal's device token.
type TokenLookup interface {
	GetByID(ctx context.Context, id string) (*models.Principal, error)
}

// PushDispatcher sends notifications as FCM pushes.
type PushDispatcher struct {
	Principals TokenLookup
	Client     FCMSender
	Logger     *zap.Logger
}

func NewPushDispatcher(principals TokenLookup, client FCMSender, logger *zap.Logger) (*PushDispatcher, error) {
	if principals == nil || client == nil {
		return nil, fmt.Errorf("push dispatcher initialization error: principal store or FCM client is nil")
	}
	return &PushDispatcher{Principals: principals, Client: client, Logger: logger}, nil
}

func (d *PushDispatcher) Notify(ctx context.Context, recipientID string, template models.TemplateKey, params identity.Params) error {
	msg, err := Compose(recipientID, template, params)
	if err != nil {
		return err
	}
	return d.Deliver(ctx, msg)
}

// Deliver looks up the recipient's FCM token and sends the push.
func (d *PushDispatcher) Deliver(ctx context.Context, msg models.NotificationMessage) error {
	err := d.deliver(ctx, msg)
	metrics.RecordNotification(string(msg.Template), err)
	return err
}

func (d *PushDispatcher) deliver(ctx context.Context, msg models.NotificationMessage) error {
	p, err := d.Principals.GetByID(ctx, msg.RecipientID)
	if err != nil {
		return fmt.Errorf("push: could not find principal %s: %w", msg.RecipientID, err)
	}
	if p.FCMToken == "" {
		return fmt.Errorf("push: principal %s has no FCM token", msg.RecipientID)
	}

	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["role"] = string(p.Role)

	message := &messaging.Message{
		Token: p.FCMToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "sessions",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	id, err := d.Client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("push: failed to send FCM message: %w", err)
	}
	d.Logger.Debug("push sent",
		zap.String("recipientID", msg.RecipientID),
		zap.String("template", string(msg.Template)),
		zap.String("messageID", id))
	return nil
}
