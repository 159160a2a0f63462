package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mindhaven/database/dbtest"
	"mindhaven/database/repository"
	"mindhaven/models"
	"mindhaven/services/availability"
	"mindhaven/services/identity"

	"go.uber.org/zap"
)

type sent struct {
	recipientID string
	template    models.TemplateKey
	params      identity.Params
}

type recorder struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (r *recorder) Notify(_ context.Context, recipientID string, template models.TemplateKey, params identity.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{recipientID: recipientID, template: template, params: params})
	return r.err
}

func (r *recorder) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

func (r *recorder) count(template models.TemplateKey) int {
	n := 0
	for _, s := range r.all() {
		if s.template == template {
			n++
		}
	}
	return n
}

type fakeProvisioner struct {
	mu           sync.Mutex
	err          error
	block        bool
	hang         chan struct{} // ignores the context until closed
	onProvision  func()
	provisioned  int
	participants [][]string
	released     []string
}

func (f *fakeProvisioner) Provision(ctx context.Context, title string, durationMinutes int, start time.Time) (*models.Meeting, error) {
	f.mu.Lock()
	err, block, hang, hook := f.err, f.block, f.hang, f.onProvision
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if hang != nil {
		<-hang
	}
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.provisioned++
	f.mu.Unlock()
	return &models.Meeting{ID: "m-1", JoinURL: "https://meet.example/m-1", Password: "secret"}, nil
}

func (f *fakeProvisioner) AddParticipants(_ context.Context, meetingID string, emails []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants = append(f.participants, emails)
	return nil
}

func (f *fakeProvisioner) Release(_ context.Context, meetingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, meetingID)
	return nil
}

func (f *fakeProvisioner) releasedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

// failingLookup fails GetByID for one id and defers to the real store otherwise.
type failingLookup struct {
	PrincipalLookup
	failID string
	err    error
}

func (l failingLookup) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	if id == l.failID {
		return nil, l.err
	}
	return l.PrincipalLookup.GetByID(ctx, id)
}

var errProviderDown = errors.New("provider unavailable")

// Monday 2026-10-19, 08:00 UTC. Sessions are booked for the following Monday.
var baseNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

const sessionDate = "2026-10-26"

type harness struct {
	stores   *repository.Stores
	svc      *Service
	notes    *recorder
	meetings *fakeProvisioner
	client   *models.Principal
	pro      *models.Principal
	now      time.Time
}

func newHarness(t *testing.T, peer bool) *harness {
	t.Helper()
	stores := dbtest.Stores(t)
	h := &harness{
		stores:   stores,
		notes:    &recorder{},
		meetings: &fakeProvisioner{},
		client:   dbtest.Principal(t, stores, models.RoleClient, "amina", false),
		pro:      dbtest.Principal(t, stores, models.RoleProfessional, "kamau", peer),
		now:      baseNow,
	}

	catalog := availability.NewCatalog(stores.Availability)
	slots := []models.AvailabilitySlot{{Start: 600, End: 660}, {Start: 660, End: 720}, {Start: 900, End: 960}}
	if _, err := catalog.SetDay(context.Background(), h.proActor(), h.pro.ID, models.Monday, slots, true); err != nil {
		t.Fatalf("SetDay: %v", err)
	}

	resolver := availability.NewResolver(stores.Availability, stores.Bookings, time.UTC)
	h.svc = NewService(stores.Bookings, stores.Principals, resolver, h.meetings, h.notes, zap.NewNop(), time.UTC, time.Second)
	h.svc.Now = func() time.Time { return h.now }
	return h
}

func (h *harness) clientActor() models.Actor {
	return models.Actor{ID: h.client.ID, Role: models.RoleClient}
}

func (h *harness) proActor() models.Actor {
	return models.Actor{ID: h.pro.ID, Role: models.RoleProfessional}
}

func (h *harness) request(start, end int) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		ProfessionalID: h.pro.ID,
		Date:           sessionDate,
		Start:          start,
		End:            end,
		Modality:       models.ModalityVideo,
		Concern:        "sleep trouble",
	}
}

func (h *harness) create(t *testing.T, start, end int) *models.Booking {
	t.Helper()
	b, err := h.svc.Create(context.Background(), h.clientActor(), h.request(start, end))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return b
}

func (h *harness) confirmed(t *testing.T, start, end int) *models.Booking {
	t.Helper()
	b := h.create(t, start, end)
	c, err := h.svc.Confirm(context.Background(), h.proActor(), b.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	return c
}

func (h *harness) status(t *testing.T, id string) models.BookingStatus {
	t.Helper()
	b, err := h.stores.Bookings.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return b.Status
}
