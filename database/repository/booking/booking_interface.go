package bookingRepo

import (
	"context"
	"time"

	"mindhaven/models"
)

// BookingRepository persists bookings. Every status change is a conditional write on the prior status.
type BookingRepository interface {
	// Create inserts a new booking. Returns database.ErrSlotTaken when the slot key is held.
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// HasActiveOverlap reports whether an active booking of the professional on date overlaps [start, end).
	HasActiveOverlap(ctx context.Context, professionalID, date string, start, end int) (bool, error)
	// Transition sets the new status where the booking is still in `from`.
	// Returns database.ErrStatusMismatch if it is not.
	Transition(ctx context.Context, id string, from models.BookingStatus, t models.Transition) (*models.Booking, error)
	// Reschedule cancels the confirmed original and inserts the replacement in one transaction.
	Reschedule(ctx context.Context, originalID, reason string, replacement *models.Booking) (*models.Booking, error)
	// MarkReminderSent claims the reminder flag. It reports false if it was already claimed
	// or the booking is no longer confirmed.
	MarkReminderSent(ctx context.Context, id string) (bool, error)

	ListDueReminders(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	ListElapsedConfirmed(ctx context.Context, endedBefore time.Time) ([]models.Booking, error)
	ListStale(ctx context.Context, startedBefore time.Time) ([]models.Booking, error)
	ListByParticipant(ctx context.Context, principalID string, limit, offset int) ([]models.Booking, error)
}

// releasesSlot reports whether a transition into `to` frees the slot key.
func releasesSlot(to models.BookingStatus) bool {
	return to.Terminal()
}

func newSlotKey(b *models.Booking) *string {
	k := models.SlotKeyFor(b.ProfessionalID, b.Date, b.Start, b.End)
	return &k
}
