package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mindhaven/database/dbtest"
	"mindhaven/handlers"
	"mindhaven/models"
	"mindhaven/services/availability"
	"mindhaven/services/booking"
	"mindhaven/services/identity"
	"mindhaven/services/meeting"
	"mindhaven/services/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const adminToken = "admin-secret"

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	stores := dbtest.Stores(t)

	catalog := availability.NewCatalog(stores.Availability)
	resolver := availability.NewResolver(stores.Availability, stores.Bookings, time.UTC)
	registry := identity.NewRegistry(stores.Principals, logger)
	svc := booking.NewService(
		stores.Bookings,
		stores.Principals,
		resolver,
		&meeting.JitsiProvisioner{BaseURL: "https://meet.example"},
		&notification.LogDispatcher{Logger: logger},
		logger,
		time.UTC,
		time.Second,
	)

	router := gin.New()
	RegisterRoutes(router, &handlers.HandlerBundle{
		Principals:   stores.Principals,
		AdminToken:   adminToken,
		Booking:      handlers.NewBookingHandler(svc, logger),
		Availability: handlers.NewAvailabilityHandler(catalog, resolver, logger),
		Admin:        handlers.NewAdminHandler(registry, logger),
		Device:       handlers.NewDeviceHandler(registry),
	})
	return &api{t: t, router: router}
}

func (a *api) do(method, path, token string, body any) (int, map[string]json.RawMessage) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]json.RawMessage{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			a.t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

// register creates a principal through the admin API and returns it with its token.
func (a *api) register(role models.Role, name string) (models.Principal, string) {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/admin/principals", adminToken, map[string]any{
		"role":        role,
		"displayName": name,
		"email":       name + "@example.com",
	})
	if code != http.StatusCreated {
		a.t.Fatalf("register %s: status %d", name, code)
	}
	return decode[models.Principal](a.t, body["principal"]), decode[string](a.t, body["token"])
}

func TestBookingFlowOverHTTP(t *testing.T) {
	a := newAPI(t)
	pro, proToken := a.register(models.RoleProfessional, "kamau")
	_, clientToken := a.register(models.RoleClient, "amina")

	sessionDay := time.Now().UTC().AddDate(0, 0, 8)
	date := sessionDay.Format(models.DateLayout)
	weekday := models.WeekdayOf(sessionDay)

	code, _ := a.do(http.MethodPut, "/api/availability/"+strings.ToLower(weekday.String()), proToken, models.SetDayRequest{
		Slots:     []models.AvailabilitySlot{{Start: 600, End: 660}},
		Available: true,
	})
	if code != http.StatusOK {
		t.Fatalf("set day: status %d", code)
	}
	if code, _ := a.do(http.MethodPut, "/api/availability/monday", clientToken, models.SetDayRequest{}); code != http.StatusForbidden {
		t.Fatalf("client set day: status %d, want 403", code)
	}

	code, body := a.do(http.MethodGet, "/api/availability/"+pro.ID+"/days/"+strings.ToLower(weekday.String()), clientToken, nil)
	if code != http.StatusOK {
		t.Fatalf("get day: status %d", code)
	}
	if day := decode[models.AvailabilityDay](t, body["day"]); len(day.Slots) != 1 || !day.Available {
		t.Fatalf("day = %+v", day)
	}

	req := models.CreateBookingRequest{
		ProfessionalID: pro.ID,
		Date:           date,
		Start:          600,
		End:            660,
		Modality:       models.ModalityVideo,
	}
	code, body = a.do(http.MethodPost, "/api/bookings", clientToken, req)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	created := decode[models.Booking](t, body["booking"])
	if created.Status != models.StatusPending {
		t.Fatalf("status = %s", created.Status)
	}

	if code, _ := a.do(http.MethodPost, "/api/bookings", clientToken, req); code != http.StatusConflict {
		t.Fatalf("double booking: status %d, want 409", code)
	}
	if code, _ := a.do(http.MethodPost, "/api/bookings/"+created.ID+"/confirm", clientToken, nil); code != http.StatusForbidden {
		t.Fatalf("client confirm: status %d, want 403", code)
	}

	code, body = a.do(http.MethodPost, "/api/bookings/"+created.ID+"/confirm", proToken, nil)
	if code != http.StatusOK {
		t.Fatalf("confirm: status %d", code)
	}
	confirmed := decode[models.Booking](t, body["booking"])
	if confirmed.Status != models.StatusConfirmed || !strings.HasPrefix(confirmed.MeetingLink, "https://meet.example/") {
		t.Fatalf("confirmed = %+v", confirmed)
	}

	if code, _ := a.do(http.MethodPost, "/api/bookings/"+created.ID+"/confirm", proToken, nil); code != http.StatusConflict {
		t.Fatalf("second confirm: status %d, want 409", code)
	}

	code, body = a.do(http.MethodGet, "/api/bookings", clientToken, nil)
	if code != http.StatusOK {
		t.Fatalf("list: status %d", code)
	}
	if list := decode[[]models.Booking](t, body["bookings"]); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}

	code, body = a.do(http.MethodPost, "/api/bookings/"+created.ID+"/cancel", clientToken, models.CancelRequest{Reason: "travel"})
	if code != http.StatusOK {
		t.Fatalf("cancel: status %d", code)
	}
	if b := decode[models.Booking](t, body["booking"]); b.Status != models.StatusCancelled || b.CancellationReason != "travel" {
		t.Fatalf("cancelled = %+v", b)
	}

	if code, _ := a.do(http.MethodPost, "/api/bookings", clientToken, req); code != http.StatusCreated {
		t.Fatalf("rebook freed slot: status %d", code)
	}
}

func TestValidationAndNotFoundOverHTTP(t *testing.T) {
	a := newAPI(t)
	pro, proToken := a.register(models.RoleProfessional, "kamau")
	_, clientToken := a.register(models.RoleClient, "amina")

	code, body := a.do(http.MethodPut, "/api/availability/tuesday", proToken, models.SetDayRequest{
		Slots:     []models.AvailabilitySlot{{Start: 700, End: 600}},
		Available: true,
	})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("bad slot: status %d, want 422", code)
	}
	if decode[string](t, body["code"]) != "VALIDATION_ERROR" {
		t.Fatalf("code = %s", body["code"])
	}

	if code, _ := a.do(http.MethodGet, "/api/availability/"+pro.ID+"/days/funday", clientToken, nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("bad weekday: status %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/bookings/does-not-exist", clientToken, nil); code != http.StatusNotFound {
		t.Fatalf("missing booking: status %d", code)
	}
	if code, _ := a.do(http.MethodPost, "/api/bookings", clientToken, map[string]any{"date": "2026-10-26"}); code != http.StatusBadRequest {
		t.Fatalf("malformed create: status %d", code)
	}
}

func TestAuthentication(t *testing.T) {
	a := newAPI(t)
	_, clientToken := a.register(models.RoleClient, "amina")

	if code, _ := a.do(http.MethodGet, "/api/bookings", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/bookings", "garbage", nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", code)
	}
	if code, _ := a.do(http.MethodPost, "/api/admin/principals", clientToken, map[string]any{"role": "client", "displayName": "x"}); code != http.StatusForbidden {
		t.Fatalf("client on admin route: status %d", code)
	}
	if code, _ := a.do(http.MethodPost, "/api/admin/principals", "wrong-static", map[string]any{"role": "client", "displayName": "x"}); code != http.StatusUnauthorized {
		t.Fatalf("wrong static token: status %d", code)
	}
}

func TestPrincipalSelfService(t *testing.T) {
	a := newAPI(t)
	pro, proToken := a.register(models.RoleProfessional, "kamau")

	if code, _ := a.do(http.MethodPut, "/api/principals/me/fcm-token", proToken, map[string]string{"fcmToken": "device-1"}); code != http.StatusOK {
		t.Fatalf("fcm token: status %d", code)
	}
	code, body := a.do(http.MethodGet, "/api/principals/me", proToken, nil)
	if code != http.StatusOK {
		t.Fatalf("me: status %d", code)
	}
	if me := decode[models.Principal](t, body["principal"]); me.ID != pro.ID || me.PseudonymousID == "" {
		t.Fatalf("me = %+v", me)
	}

	code, body = a.do(http.MethodPost, "/api/admin/principals/"+pro.ID+"/peer-counselor", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("promote: status %d", code)
	}
	if p := decode[models.Principal](t, body["principal"]); !p.IsPeerCounselor {
		t.Fatalf("not promoted: %+v", p)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)
	if code, _ := a.do(http.MethodGet, "/health", "", nil); code != http.StatusOK {
		t.Fatalf("health: status %d", code)
	}
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", w.Code)
	}
}
