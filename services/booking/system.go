package booking

import (
	"context"

	"mindhaven/models"
	"mindhaven/utils"
)

// Expire cancels a pending or rescheduled booking that was never confirmed before it started.
func (s *Service) Expire(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if err := requireStatus(b, models.StatusPending, models.StatusRescheduled); err != nil {
		return nil, err
	}
	if b.StartsAt.After(s.Now()) {
		return nil, utils.NewInvalidTransition("booking %s has not started yet", b.ID)
	}

	expired, err := s.transition(ctx, b, models.Transition{To: models.StatusCancelled, CancellationReason: ReasonExpired})
	if err != nil {
		return nil, err
	}
	s.notifyTransition(ctx, expired, toBoth(expired, models.TemplateBookingExpired))
	return expired, nil
}

// SendReminder claims the booking's reminder flag and, only if this call won the claim,
// reminds both parties. It reports whether reminders were sent.
func (s *Service) SendReminder(ctx context.Context, b *models.Booking) (bool, error) {
	claimed, err := s.Bookings.MarkReminderSent(ctx, b.ID)
	if err != nil || !claimed {
		return false, err
	}
	b.ReminderSent = true
	s.notifyTransition(ctx, b, toBoth(b, models.TemplateBookingReminder))
	return true, nil
}
