package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindhaven/database"
	"mindhaven/models"

	"gorm.io/gorm"
)

// GormBookingRepo implements BookingRepository on a SQL database.
type GormBookingRepo struct {
	db *gorm.DB
}

func NewGormBookingRepo(db *gorm.DB) *GormBookingRepo {
	return &GormBookingRepo{db: db}
}

func (r *GormBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return create(r.db.WithContext(ctx), b)
}

func create(tx *gorm.DB, b *models.Booking) error {
	if b.Status.Active() {
		b.SlotKey = newSlotKey(b)
	}
	// instants are compared as text on sqlite, so keep them all in UTC
	b.StartsAt, b.EndsAt = b.StartsAt.UTC(), b.EndsAt.UTC()
	b.CreatedAt, b.UpdatedAt = b.CreatedAt.UTC(), b.UpdatedAt.UTC()
	if err := tx.Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return database.ErrSlotTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *GormBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *GormBookingRepo) HasActiveOverlap(ctx context.Context, professionalID, date string, start, end int) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("professional_id = ? AND date = ?", professionalID, date).
		Where("status IN ?", models.ActiveStatuses).
		Where("start_minute < ? AND end_minute > ?", end, start).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return n > 0, nil
}

func transitionUpdates(t models.Transition) map[string]any {
	update := map[string]any{
		"status":     t.To,
		"updated_at": t.At.UTC(),
	}
	if t.To == models.StatusCancelled {
		update["cancellation_reason"] = t.CancellationReason
	}
	if t.Meeting != nil {
		update["meeting_link"] = t.Meeting.JoinURL
		update["meeting_password"] = t.Meeting.Password
		update["meeting_id"] = t.Meeting.ID
	}
	if releasesSlot(t.To) {
		update["slot_key"] = nil
	}
	return update
}

func transition(tx *gorm.DB, id string, from models.BookingStatus, t models.Transition) error {
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(transitionUpdates(t))
	if res.Error != nil {
		return fmt.Errorf("failed to transition booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.Model(&models.Booking{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to fetch booking %s: %w", id, err)
		}
		if n == 0 {
			return database.ErrNotFound
		}
		return database.ErrStatusMismatch
	}
	return nil
}

func (r *GormBookingRepo) Transition(ctx context.Context, id string, from models.BookingStatus, t models.Transition) (*models.Booking, error) {
	if err := transition(r.db.WithContext(ctx), id, from, t); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *GormBookingRepo) Reschedule(ctx context.Context, originalID, reason string, replacement *models.Booking) (*models.Booking, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, originalID, models.StatusConfirmed, models.Transition{
			To:                 models.StatusCancelled,
			CancellationReason: reason,
			At:                 replacement.CreatedAt,
		}); err != nil {
			return err
		}
		return create(tx, replacement)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, originalID)
}

func (r *GormBookingRepo) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND reminder_sent = ?", id, models.StatusConfirmed, false).
		Updates(map[string]any{"reminder_sent": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim reminder for booking %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormBookingRepo) ListDueReminders(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = ?", models.StatusConfirmed, false).
		Where("starts_at >= ? AND starts_at <= ?", from.UTC(), to.UTC()).
		Order("starts_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return out, nil
}

func (r *GormBookingRepo) ListElapsedConfirmed(ctx context.Context, endedBefore time.Time) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND ends_at < ?", models.StatusConfirmed, endedBefore.UTC()).
		Order("ends_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list elapsed bookings: %w", err)
	}
	return out, nil
}

func (r *GormBookingRepo) ListStale(ctx context.Context, startedBefore time.Time) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND starts_at < ?",
			[]models.BookingStatus{models.StatusPending, models.StatusRescheduled}, startedBefore.UTC()).
		Order("starts_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale bookings: %w", err)
	}
	return out, nil
}

func (r *GormBookingRepo) ListByParticipant(ctx context.Context, principalID string, limit, offset int) ([]models.Booking, error) {
	var out []models.Booking
	q := r.db.WithContext(ctx).
		Where("client_id = ? OR professional_id = ?", principalID, principalID).
		Order("starts_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", principalID, err)
	}
	return out, nil
}
