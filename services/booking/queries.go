package booking

import (
	"context"

	"mindhaven/models"
)

const maxListLimit = 100

// Get returns a booking to one of its parties, an admin or the scheduler.
func (s *Service) Get(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleAdmin {
		return b, nil
	}
	if err := authorize(b, actor, false, true); err != nil {
		return nil, err
	}
	return b, nil
}

// ListMine lists the actor's bookings, newest session first.
func (s *Service) ListMine(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.Bookings.ListByParticipant(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Booking{}
	}
	return out, nil
}
