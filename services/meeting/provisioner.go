package meeting

import (
	"context"
	"time"

	"mindhaven/models"
)

// Provisioner issues meeting rooms for confirmed sessions.
type Provisioner interface {
	// Provision creates a meeting. Callers bound it with a context deadline.
	Provision(ctx context.Context, title string, durationMinutes int, start time.Time) (*models.Meeting, error)
	// AddParticipants is a best-effort follow-up; failures do not affect the booking.
	AddParticipants(ctx context.Context, meetingID string, emails []string) error
	// Release deletes a meeting that no booking will use.
	Release(ctx context.Context, meetingID string) error
}
