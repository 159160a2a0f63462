package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindhaven/database"
	"mindhaven/metrics"
	"mindhaven/models"
	"mindhaven/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionWindow validates a requested range and returns its instants.
func (s *Service) sessionWindow(date string, start, end int) (time.Time, time.Time, error) {
	if start < 0 || end > models.MinutesPerDay || end <= start {
		return time.Time{}, time.Time{}, utils.NewValidation("invalid session range %d-%d", start, end)
	}
	startsAt, endsAt, err := models.SessionBounds(date, start, end, s.Location)
	if err != nil {
		return time.Time{}, time.Time{}, utils.NewValidation("invalid date %q", date)
	}
	if !startsAt.After(s.Now()) {
		return time.Time{}, time.Time{}, utils.NewSlotConflict("session on %s at %s has already started", date, models.FormatClock(start))
	}
	return startsAt, endsAt, nil
}

func (s *Service) requireFree(ctx context.Context, professionalID, date string, start, end int) error {
	free, err := s.Slots.IsFree(ctx, professionalID, date, start, end)
	if err != nil {
		return err
	}
	if !free {
		return utils.NewSlotConflict("slot %s %s-%s is not available", date, models.FormatClock(start), models.FormatClock(end))
	}
	return nil
}

// Create requests a session with a professional. The booking starts Pending.
func (s *Service) Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error) {
	b, err := s.create(ctx, actor, req)
	metrics.RecordBookingCreated(err)
	return b, err
}

func (s *Service) create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error) {
	if actor.Role != models.RoleClient {
		return nil, utils.NewForbidden("only clients can request sessions")
	}

	prof, err := s.Principals.GetByID(ctx, req.ProfessionalID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, utils.NewNotFound("professional %s not found", req.ProfessionalID)
	case err != nil:
		return nil, fmt.Errorf("load professional %s: %w", req.ProfessionalID, err)
	case prof.Role != models.RoleProfessional:
		return nil, utils.NewNotFound("professional %s not found", req.ProfessionalID)
	}
	if !req.Modality.Valid() {
		return nil, utils.NewValidation("modality must be video or audio")
	}

	startsAt, endsAt, err := s.sessionWindow(req.Date, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if err := s.requireFree(ctx, req.ProfessionalID, req.Date, req.Start, req.End); err != nil {
		return nil, err
	}

	now := s.Now()
	b := &models.Booking{
		ID:             uuid.NewString(),
		ClientID:       actor.ID,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Start:          req.Start,
		End:            req.End,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		Modality:       req.Modality,
		Concern:        req.Concern,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Bookings.Create(ctx, b); err != nil {
		return nil, storeError(err, b.ID)
	}
	s.Logger.Info("booking created", zap.String("bookingID", b.ID), zap.String("professionalID", b.ProfessionalID))

	s.notifyTransition(ctx, b, []notice{{recipientID: b.ProfessionalID, template: models.TemplateBookingRequested}})
	return b, nil
}

// Confirm accepts a pending or rescheduled booking. The meeting is provisioned first; the
// booking only becomes Confirmed, with its link, once that succeeds.
func (s *Service) Confirm(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	return s.confirm(ctx, actor, bookingID, models.StatusPending, models.StatusRescheduled)
}

// ConfirmReschedule accepts only a booking created by Reschedule.
func (s *Service) ConfirmReschedule(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	return s.confirm(ctx, actor, bookingID, models.StatusRescheduled)
}

func (s *Service) confirm(ctx context.Context, actor models.Actor, bookingID string, from ...models.BookingStatus) (*models.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actor, true, false); err != nil {
		return nil, err
	}
	if err := requireStatus(b, from...); err != nil {
		return nil, err
	}

	m, err := s.provision(ctx, b)
	if err != nil {
		s.Logger.Warn("meeting provisioning failed", zap.String("bookingID", b.ID), zap.Error(err))
		return nil, utils.NewProvisioningFailure(err)
	}

	confirmed, err := s.transition(ctx, b, models.Transition{To: models.StatusConfirmed, Meeting: m})
	if err != nil {
		if errors.Is(err, utils.ErrInvalidTransition) || errors.Is(err, utils.ErrNotFound) {
			s.releaseMeeting(m, b.ID, releaseLostRace)
		} else {
			s.Logger.Warn("confirm write failed after provisioning",
				zap.String("bookingID", b.ID), zap.String("meetingID", m.ID), zap.Error(err))
		}
		return nil, err
	}

	s.notifyTransition(ctx, confirmed, toBoth(confirmed, models.TemplateBookingConfirmed))
	s.addParticipants(ctx, confirmed)
	return confirmed, nil
}

// provision creates the meeting under MeetingTimeout. The deadline holds even when the
// provider ignores its context; a meeting that shows up after it is released.
func (s *Service) provision(ctx context.Context, b *models.Booking) (*models.Meeting, error) {
	mctx, cancel := context.WithTimeout(ctx, s.MeetingTimeout)
	defer cancel()

	type result struct {
		meeting *models.Meeting
		err     error
	}
	done := make(chan result, 1)
	title := fmt.Sprintf("Counseling session %s %s", b.Date, models.FormatClock(b.Start))
	go func() {
		m, err := s.Meetings.Provision(mctx, title, b.Minutes(), b.StartsAt)
		done <- result{meeting: m, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.meeting == nil {
			return nil, errors.New("provider returned no meeting")
		}
		return r.meeting, r.err
	case <-mctx.Done():
		go func() {
			if r := <-done; r.err == nil && r.meeting != nil {
				s.releaseMeeting(r.meeting, b.ID, releaseLate)
			}
		}()
		return nil, mctx.Err()
	}
}

// releaseMeeting deletes a meeting no booking will reference. Failures are logged and counted.
func (s *Service) releaseMeeting(m *models.Meeting, bookingID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	err := s.Meetings.Release(ctx, m.ID)
	metrics.RecordMeetingRelease(reason, err)
	if err != nil {
		s.Logger.Warn("releasing unused meeting failed",
			zap.String("bookingID", bookingID), zap.String("meetingID", m.ID), zap.String("reason", reason), zap.Error(err))
		return
	}
	s.Logger.Info("released unused meeting",
		zap.String("bookingID", bookingID), zap.String("meetingID", m.ID), zap.String("reason", reason))
}

// addParticipants registers both parties with the meeting. Peer sessions are skipped so no
// real email reaches the meeting provider alongside a pseudonymous booking.
func (s *Service) addParticipants(ctx context.Context, b *models.Booking) {
	parties := s.parties(ctx, b)
	if parties.IsPeerSession() {
		return
	}
	var emails []string
	for _, p := range []*models.Principal{parties.Client, parties.Professional} {
		if p != nil && p.Email != "" {
			emails = append(emails, p.Email)
		}
	}
	if len(emails) == 0 {
		return
	}

	pctx, cancel := context.WithTimeout(ctx, participantsTimeout)
	defer cancel()
	if err := s.Meetings.AddParticipants(pctx, b.MeetingID, emails); err != nil {
		s.Logger.Warn("adding meeting participants failed", zap.String("bookingID", b.ID), zap.Error(err))
	}
}

// Cancel ends an active booking. Either party may cancel.
func (s *Service) Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actor, false, true); err != nil {
		return nil, err
	}
	if err := requireStatus(b, models.ActiveStatuses...); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = fmt.Sprintf("cancelled by %s", actor.Role)
	}

	cancelled, err := s.transition(ctx, b, models.Transition{To: models.StatusCancelled, CancellationReason: reason})
	if err != nil {
		return nil, err
	}
	s.notifyTransition(ctx, cancelled, toBoth(cancelled, models.TemplateBookingCancelled))
	return cancelled, nil
}

// Complete closes a confirmed session. The professional or the scheduler may complete.
func (s *Service) Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actor, true, true); err != nil {
		return nil, err
	}
	if err := requireStatus(b, models.StatusConfirmed); err != nil {
		return nil, err
	}

	completed, err := s.transition(ctx, b, models.Transition{To: models.StatusCompleted})
	if err != nil {
		return nil, err
	}
	s.notifyTransition(ctx, completed, toBoth(completed, models.TemplateBookingCompleted))
	return completed, nil
}

// Reschedule moves a confirmed booking to a new free slot. The original is cancelled and a
// new Rescheduled booking pointing at it is created in the same write; it must be confirmed again.
func (s *Service) Reschedule(ctx context.Context, actor models.Actor, bookingID string, req models.RescheduleRequest) (*models.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actor, true, false); err != nil {
		return nil, err
	}
	if err := requireStatus(b, models.StatusConfirmed); err != nil {
		return nil, err
	}

	startsAt, endsAt, err := s.sessionWindow(req.Date, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if err := s.requireFree(ctx, b.ProfessionalID, req.Date, req.Start, req.End); err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = ReasonRescheduled
	}
	now := s.Now()
	replacement := &models.Booking{
		ID:              uuid.NewString(),
		ClientID:        b.ClientID,
		ProfessionalID:  b.ProfessionalID,
		Date:            req.Date,
		Start:           req.Start,
		End:             req.End,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		Modality:        b.Modality,
		Concern:         b.Concern,
		Status:          models.StatusRescheduled,
		RescheduledFrom: b.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.Bookings.Reschedule(ctx, b.ID, reason, replacement); err != nil {
		return nil, storeError(err, b.ID)
	}
	metrics.RecordTransition(string(models.StatusConfirmed), string(models.StatusCancelled))
	s.Logger.Info("booking rescheduled",
		zap.String("bookingID", b.ID),
		zap.String("replacementID", replacement.ID))

	s.notifyTransition(ctx, replacement, toBoth(replacement, models.TemplateBookingRescheduled))
	return replacement, nil
}
