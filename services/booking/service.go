package booking

import (
	"context"
	"errors"
	"time"

	"mindhaven/database"
	bookingRepo "mindhaven/database/repository/booking"
	"mindhaven/metrics"
	"mindhaven/models"
	"mindhaven/services/identity"
	"mindhaven/services/meeting"
	"mindhaven/services/notification"
	"mindhaven/utils"

	"go.uber.org/zap"
)

const (
	defaultMeetingTimeout = 10 * time.Second
	participantsTimeout   = 10 * time.Second
	releaseTimeout        = 30 * time.Second

	releaseLostRace = "lost_race"
	releaseLate     = "late"

	ReasonRescheduled = "rescheduled"
	ReasonExpired     = "not accepted before session time"
)

// SlotChecker decides whether a concrete range can still be booked.
type SlotChecker interface {
	IsFree(ctx context.Context, professionalID, date string, start, end int) (bool, error)
}

// PrincipalLookup loads booking parties.
type PrincipalLookup interface {
	GetByID(ctx context.Context, id string) (*models.Principal, error)
}

// Service is the booking state machine. Every status change goes through a conditional
// write on the prior status, and every change notifies through notifyTransition.
type Service struct {
	Bookings       bookingRepo.BookingRepository
	Principals     PrincipalLookup
	Slots          SlotChecker
	Meetings       meeting.Provisioner
	Notifier       notification.Dispatcher
	Logger         *zap.Logger
	Location       *time.Location
	MeetingTimeout time.Duration
	Now            func() time.Time
}

func NewService(
	bookings bookingRepo.BookingRepository,
	principals PrincipalLookup,
	slots SlotChecker,
	meetings meeting.Provisioner,
	notifier notification.Dispatcher,
	logger *zap.Logger,
	loc *time.Location,
	meetingTimeout time.Duration,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if meetingTimeout <= 0 {
		meetingTimeout = defaultMeetingTimeout
	}
	return &Service{
		Bookings:       bookings,
		Principals:     principals,
		Slots:          slots,
		Meetings:       meetings,
		Notifier:       notifier,
		Logger:         logger,
		Location:       loc,
		MeetingTimeout: meetingTimeout,
		Now:            time.Now,
	}
}

// notice is one (recipient, template) pair of a transition.
type notice struct {
	recipientID string
	template    models.TemplateKey
}

func toBoth(b *models.Booking, template models.TemplateKey) []notice {
	return []notice{
		{recipientID: b.ClientID, template: template},
		{recipientID: b.ProfessionalID, template: template},
	}
}

// parties loads both principals. A principal that fails to load is left nil, and a nil
// professional is masked like a peer counselor.
func (s *Service) parties(ctx context.Context, b *models.Booking) identity.Parties {
	var p identity.Parties
	var err error
	if p.Client, err = s.Principals.GetByID(ctx, b.ClientID); err != nil {
		s.Logger.Warn("could not load client", zap.String("bookingID", b.ID), zap.Error(err))
		p.Client = nil
	}
	if p.Professional, err = s.Principals.GetByID(ctx, b.ProfessionalID); err != nil {
		s.Logger.Warn("could not load professional", zap.String("bookingID", b.ID), zap.Error(err))
		p.Professional = nil
	}
	return p
}

// notifyTransition is the only path to the dispatcher. Params are always bound through the
// identity mask. Delivery errors are logged and never undo the transition.
func (s *Service) notifyTransition(ctx context.Context, b *models.Booking, notices []notice) {
	parties := s.parties(ctx, b)
	for _, n := range notices {
		params := identity.Bind(b, parties, n.recipientID)
		if err := s.Notifier.Notify(ctx, n.recipientID, n.template, params); err != nil {
			s.Logger.Warn("notification failed",
				zap.String("bookingID", b.ID),
				zap.String("recipientID", n.recipientID),
				zap.String("template", string(n.template)),
				zap.Error(err))
		}
	}
}

// transition applies one conditional status change and records it.
func (s *Service) transition(ctx context.Context, b *models.Booking, t models.Transition) (*models.Booking, error) {
	t.At = s.Now()
	updated, err := s.Bookings.Transition(ctx, b.ID, b.Status, t)
	if err != nil {
		return nil, storeError(err, b.ID)
	}
	metrics.RecordTransition(string(b.Status), string(t.To))
	s.Logger.Info("booking transitioned",
		zap.String("bookingID", b.ID),
		zap.String("from", string(b.Status)),
		zap.String("to", string(t.To)))
	return updated, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, id)
	}
	return b, nil
}

// storeError converts record store sentinels into coded errors.
func storeError(err error, id string) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return utils.NewNotFound("booking %s not found", id)
	case errors.Is(err, database.ErrStatusMismatch):
		return utils.NewInvalidTransition("booking %s changed status concurrently", id)
	case errors.Is(err, database.ErrSlotTaken):
		return utils.NewSlotConflict("the requested slot was just taken")
	}
	return err
}

func isParty(b *models.Booking, actor models.Actor) bool {
	return actor.ID == b.ClientID || actor.ID == b.ProfessionalID
}

// authorize checks party membership, then the role the operation needs.
func authorize(b *models.Booking, actor models.Actor, professionalOnly, allowSystem bool) error {
	if actor.Role == models.RoleSystem {
		if allowSystem {
			return nil
		}
		return utils.NewForbidden("operation is not available to the scheduler")
	}
	if !isParty(b, actor) {
		return utils.NewForbidden("not a party to booking %s", b.ID)
	}
	if professionalOnly && (actor.ID != b.ProfessionalID || actor.Role != models.RoleProfessional) {
		return utils.NewForbidden("only the booking's professional may do this")
	}
	return nil
}

func requireStatus(b *models.Booking, allowed ...models.BookingStatus) error {
	for _, st := range allowed {
		if b.Status == st {
			return nil
		}
	}
	return utils.NewInvalidTransition("booking %s is %s", b.ID, b.Status)
}
