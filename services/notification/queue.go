package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mindhaven/metrics"
	"mindhaven/models"
	"mindhaven/services/identity"

	"github.com/hibiken/asynq"
)

// TypeNotificationSend is the asynq task type carrying a rendered notification.
const TypeNotificationSend = "notification:send"

// Enqueuer is the part of *asynq.Client the queue dispatcher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher renders notifications and hands them to the asynq queue, so request
// paths never wait on push delivery.
type QueueDispatcher struct {
	Client  Enqueuer
	Queue   string
	Retries int
	Now     func() time.Time
}

func NewQueueDispatcher(client Enqueuer) *QueueDispatcher {
	return &QueueDispatcher{Client: client, Queue: "notifications", Retries: 5, Now: time.Now}
}

// NewNotificationTask wraps a rendered message into an asynq task.
func NewNotificationTask(msg models.NotificationMessage) (*asynq.Task, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationSend, b), nil
}

// ParseNotificationTask decodes the payload written by NewNotificationTask.
func ParseNotificationTask(task *asynq.Task) (models.NotificationMessage, error) {
	var msg models.NotificationMessage
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return msg, fmt.Errorf("invalid notification payload: %w", err)
	}
	return msg, nil
}

func (d *QueueDispatcher) Notify(ctx context.Context, recipientID string, template models.TemplateKey, params identity.Params) error {
	msg, err := Compose(recipientID, template, params)
	if err != nil {
		return err
	}
	msg.QueuedAt = d.Now().UTC()

	task, err := NewNotificationTask(msg)
	if err != nil {
		return err
	}
	_, err = d.Client.EnqueueContext(ctx, task, asynq.Queue(d.Queue), asynq.MaxRetry(d.Retries))
	if err != nil {
		metrics.RecordNotification(string(template), err)
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}
