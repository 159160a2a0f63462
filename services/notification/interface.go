package notification

import (
	"context"

	"mindhaven/models"
	"mindhaven/services/identity"
)

// Dispatcher delivers one templated notification. Params must come from identity.Bind.
type Dispatcher interface {
	Notify(ctx context.Context, recipientID string, template models.TemplateKey, params identity.Params) error
}

// Deliverer sends an already rendered message to its recipient.
type Deliverer interface {
	Deliver(ctx context.Context, msg models.NotificationMessage) error
}
