package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for bookings.
const DateLayout = "2006-01-02"

type BookingStatus string

const (
	StatusPending     BookingStatus = "pending"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCompleted   BookingStatus = "completed"
	StatusCancelled   BookingStatus = "cancelled"
	StatusRescheduled BookingStatus = "rescheduled"
)

// ActiveStatuses are the statuses that still occupy a slot.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusRescheduled}

func (s BookingStatus) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRescheduled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Modality string

const (
	ModalityVideo Modality = "video"
	ModalityAudio Modality = "audio"
)

func (m Modality) Valid() bool {
	return m == ModalityVideo || m == ModalityAudio
}

// Booking represents a counseling session request and its lifecycle.
type Booking struct {
	ID                 string        `bson:"id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClientID           string        `bson:"clientId" json:"clientId" gorm:"size:36;index;not null"`
	ProfessionalID     string        `bson:"professionalId" json:"professionalId" gorm:"size:36;index:idx_bookings_prof_date;not null"`
	Date               string        `bson:"date" json:"date" gorm:"size:10;index:idx_bookings_prof_date;not null"` // "YYYY-MM-DD"
	Start              int           `bson:"start" json:"start" gorm:"column:start_minute;not null"`                // minutes from midnight
	End                int           `bson:"end" json:"end" gorm:"column:end_minute;not null"`                      // minutes from midnight
	StartsAt           time.Time     `bson:"startsAt" json:"startsAt" gorm:"index;not null"`
	EndsAt             time.Time     `bson:"endsAt" json:"endsAt" gorm:"index;not null"`
	Modality           Modality      `bson:"modality" json:"modality" gorm:"size:16;not null"`
	Concern            string        `bson:"concern" json:"concern" gorm:"type:text"`
	Status             BookingStatus `bson:"status" json:"status" gorm:"size:20;index;not null"`
	CancellationReason string        `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty" gorm:"size:255"`
	MeetingLink        string        `bson:"meetingLink,omitempty" json:"meetingLink,omitempty" gorm:"size:512"`
	MeetingPassword    string        `bson:"meetingPassword,omitempty" json:"meetingPassword,omitempty" gorm:"size:64"`
	MeetingID          string        `bson:"meetingId,omitempty" json:"meetingId,omitempty" gorm:"size:128"`
	ReminderSent       bool          `bson:"reminderSent" json:"reminderSent" gorm:"not null;default:false"`
	RescheduledFrom    string        `bson:"rescheduledFrom,omitempty" json:"rescheduledFrom,omitempty" gorm:"size:36;index"`
	// SlotKey is set only while the booking is active; the store keeps it unique.
	SlotKey   *string   `bson:"slotKey,omitempty" json:"-" gorm:"size:96;uniqueIndex"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SlotKeyFor identifies one professional's concrete session window.
func SlotKeyFor(professionalID, date string, start, end int) string {
	return fmt.Sprintf("%s|%s|%d|%d", professionalID, date, start, end)
}

// Minutes is the session length.
func (b *Booking) Minutes() int {
	return b.End - b.Start
}

// SessionBounds converts a calendar date and wall-clock minutes into absolute instants in loc.
func SessionBounds(date string, start, end int, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, start, 0, 0, loc), time.Date(y, m, d, 0, end, 0, 0, loc), nil
}

// Transition describes a conditional status change applied by the store.
type Transition struct {
	To                 BookingStatus
	CancellationReason string
	Meeting            *Meeting
	At                 time.Time
}

// CreateBookingRequest is the client payload for a new session request.
type CreateBookingRequest struct {
	ProfessionalID string   `json:"professionalId" binding:"required"`
	Date           string   `json:"date" binding:"required"`
	Start          int      `json:"start"`
	End            int      `json:"end" binding:"required"`
	Modality       Modality `json:"modality" binding:"required"`
	Concern        string   `json:"concern"`
}

// RescheduleRequest moves a confirmed session to a new slot.
type RescheduleRequest struct {
	Date   string `json:"date" binding:"required"`
	Start  int    `json:"start"`
	End    int    `json:"end" binding:"required"`
	Reason string `json:"reason"`
}

// CancelRequest carries an optional reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}
