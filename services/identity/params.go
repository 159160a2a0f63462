package identity

import (
	"mindhaven/models"
)

// Param keys available to notification templates.
const (
	KeyBookingID       = "bookingId"
	KeyCounterpart     = "counterpart"
	KeyRecipient       = "recipient"
	KeyDate            = "date"
	KeyStart           = "start"
	KeyEnd             = "end"
	KeyModality        = "modality"
	KeyStatus          = "status"
	KeyMeetingLink     = "meetingLink"
	KeyMeetingPassword = "meetingPassword"
	KeyReason          = "reason"
)

// Params are template parameters that have been through the mask. Dispatchers only accept
// this type, and it can only be built by Bind.
type Params struct {
	values map[string]string
}

// Get returns a single parameter.
func (p Params) Get(key string) string {
	return p.values[key]
}

// Values returns a copy of all parameters.
func (p Params) Values() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Bind renders the parameters a recipient sees for a booking. Names come only from
// ResolveDisplay, so peer sessions never carry a real name.
func Bind(b *models.Booking, parties Parties, recipientID string) Params {
	viewer := models.RoleClient
	if recipientID == b.ProfessionalID {
		viewer = models.RoleProfessional
	}
	display := ResolveDisplay(b, parties, viewer)

	self, counterpart := display.Client, display.Professional
	if viewer == models.RoleProfessional {
		self, counterpart = display.Professional, display.Client
	}

	values := map[string]string{
		KeyBookingID:   b.ID,
		KeyCounterpart: counterpart.Label,
		KeyRecipient:   self.Label,
		KeyDate:        b.Date,
		KeyStart:       models.FormatClock(b.Start),
		KeyEnd:         models.FormatClock(b.End),
		KeyModality:    string(b.Modality),
		KeyStatus:      string(b.Status),
	}
	if b.MeetingLink != "" {
		values[KeyMeetingLink] = b.MeetingLink
		values[KeyMeetingPassword] = b.MeetingPassword
	}
	if b.CancellationReason != "" {
		values[KeyReason] = b.CancellationReason
	}
	return Params{values: values}
}
