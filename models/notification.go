package models

import "time"

// TemplateKey names a notification template.
type TemplateKey string

const (
	TemplateBookingRequested   TemplateKey = "booking.requested"
	TemplateBookingConfirmed   TemplateKey = "booking.confirmed"
	TemplateBookingCancelled   TemplateKey = "booking.cancelled"
	TemplateBookingCompleted   TemplateKey = "booking.completed"
	TemplateBookingRescheduled TemplateKey = "booking.rescheduled"
	TemplateBookingReminder    TemplateKey = "booking.reminder"
	TemplateBookingExpired     TemplateKey = "booking.expired"
)

// Meeting is what the meeting provider issues for a confirmed session.
type Meeting struct {
	ID       string `json:"id"`
	JoinURL  string `json:"joinUrl"`
	Password string `json:"password"`
}

// NotificationMessage is a rendered notification ready for delivery.
type NotificationMessage struct {
	RecipientID string            `json:"recipientId"`
	Template    TemplateKey       `json:"template"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
	QueuedAt    time.Time         `json:"queuedAt,omitempty"`
}
