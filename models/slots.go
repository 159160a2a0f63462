package models

import (
	"fmt"
	"time"
)

// MinutesPerDay bounds slot times, which are minutes from local midnight.
const MinutesPerDay = 24 * 60

// AvailabilitySlot is one recurring bookable window within a weekday.
type AvailabilitySlot struct {
	Start int `bson:"start" json:"start"` // minutes from midnight (e.g., 600 for 10:00)
	End   int `bson:"end" json:"end"`     // minutes from midnight (e.g., 630 for 10:30)
}

func (s AvailabilitySlot) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Minute
}

// Overlaps reports whether the two half-open ranges intersect. Touching ranges do not overlap.
func (s AvailabilitySlot) Overlaps(other AvailabilitySlot) bool {
	return s.Start < other.End && other.Start < s.End
}

func (s AvailabilitySlot) String() string {
	return fmt.Sprintf("%s-%s", FormatClock(s.Start), FormatClock(s.End))
}

// AvailabilityDay holds a professional's slots for one weekday.
type AvailabilityDay struct {
	ProfessionalID string             `bson:"professionalId" json:"professionalId" gorm:"primaryKey;size:36"`
	Weekday        Weekday            `bson:"weekday" json:"weekday" gorm:"primaryKey;autoIncrement:false"`
	Slots          []AvailabilitySlot `bson:"slots" json:"slots" gorm:"serializer:json;type:text"`
	Available      bool               `bson:"available" json:"available" gorm:"not null"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasSlot reports whether the day is open and defines exactly the given window.
func (d AvailabilityDay) HasSlot(start, end int) bool {
	if !d.Available {
		return false
	}
	for _, s := range d.Slots {
		if s.Start == start && s.End == end {
			return true
		}
	}
	return false
}

// SetDayRequest is the payload a professional sends to replace one weekday.
type SetDayRequest struct {
	Slots     []AvailabilitySlot `json:"slots"`
	Available bool               `json:"available"`
}

// UpcomingSession is a concrete free occurrence of a recurring slot.
type UpcomingSession struct {
	Date    string  `json:"date"`
	Weekday Weekday `json:"weekday"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
}

// FormatClock renders minutes from midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
