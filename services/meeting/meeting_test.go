package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type zoomStub struct {
	mu          sync.Mutex
	tokens      int
	meetings    []zoomMeetingRequest
	registrants []string
	deleted     []string
	failCreate  bool
}

func (z *zoomStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("token form: %v", err)
		}
		if r.Form.Get("grant_type") != "account_credentials" || r.Form.Get("account_id") != "acct" {
			t.Errorf("unexpected token form: %v", r.Form)
		}
		z.mu.Lock()
		z.tokens++
		z.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/users/me/meetings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if z.failCreate {
			http.Error(w, `{"code":300,"message":"bad request"}`, http.StatusBadRequest)
			return
		}
		var req zoomMeetingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode meeting: %v", err)
		}
		z.mu.Lock()
		z.meetings = append(z.meetings, req)
		z.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":8812345,"join_url":"https://zoom.example/j/8812345","password":"s3cret"}`))
	})
	mux.HandleFunc("/v2/meetings/8812345/registrants", func(w http.ResponseWriter, r *http.Request) {
		var reg zoomRegistrant
		json.NewDecoder(r.Body).Decode(&reg)
		z.mu.Lock()
		z.registrants = append(z.registrants, reg.Email)
		z.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v2/meetings/8812345", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		z.mu.Lock()
		z.deleted = append(z.deleted, "8812345")
		z.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newZoom(t *testing.T, stub *zoomStub) *ZoomProvisioner {
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	return NewZoomProvisioner(ZoomConfig{
		AccountID:    "acct",
		ClientID:     "id",
		ClientSecret: "secret",
		APIBaseURL:   srv.URL + "/v2/",
		TokenURL:     srv.URL + "/oauth/token",
	})
}

func TestZoomProvision(t *testing.T) {
	stub := &zoomStub{}
	z := newZoom(t, stub)
	start := time.Date(2026, 10, 26, 10, 0, 0, 0, time.FixedZone("EAT", 3*3600))

	m, err := z.Provision(context.Background(), "Counseling session", 60, start)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if m.ID != "8812345" || m.JoinURL != "https://zoom.example/j/8812345" || m.Password != "s3cret" {
		t.Fatalf("meeting = %+v", m)
	}
	if len(stub.meetings) != 1 {
		t.Fatalf("created %d meetings", len(stub.meetings))
	}
	req := stub.meetings[0]
	if req.StartTime != "2026-10-26T07:00:00Z" || req.Duration != 60 || req.Type != 2 || req.Timezone != "UTC" {
		t.Fatalf("request = %+v", req)
	}

	if err := z.AddParticipants(context.Background(), m.ID, []string{"a@example.com", "", "b@example.com"}); err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	if strings.Join(stub.registrants, ",") != "a@example.com,b@example.com" {
		t.Fatalf("registrants = %v", stub.registrants)
	}
	if stub.tokens != 1 {
		t.Fatalf("token fetched %d times, want 1", stub.tokens)
	}
}

func TestZoomProvisionErrorStatus(t *testing.T) {
	z := newZoom(t, &zoomStub{failCreate: true})
	_, err := z.Provision(context.Background(), "x", 30, time.Now().Add(time.Hour))
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("err = %v, want status 400", err)
	}
}

func TestZoomProvisionHonoursDeadline(t *testing.T) {
	for _, hang := range []string{"/oauth/token", "/users/me/meetings"} {
		t.Run(hang, func(t *testing.T) {
			blocked := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, hang) {
					select {
					case <-blocked:
					case <-r.Context().Done():
					}
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
			}))
			defer srv.Close()
			defer close(blocked)

			z := NewZoomProvisioner(ZoomConfig{APIBaseURL: srv.URL, TokenURL: srv.URL + "/oauth/token"})
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				_, err := z.Provision(ctx, "x", 30, time.Now())
				done <- err
			}()
			select {
			case err := <-done:
				if err == nil {
					t.Fatal("expected deadline error")
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Provision ignored its deadline")
			}
		})
	}
}

func TestZoomRelease(t *testing.T) {
	stub := &zoomStub{}
	z := newZoom(t, stub)
	if err := z.Release(context.Background(), "8812345"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(stub.deleted) != 1 || stub.deleted[0] != "8812345" {
		t.Fatalf("deleted = %v", stub.deleted)
	}
	if err := z.Release(context.Background(), "404404"); err == nil {
		t.Fatal("expected error for unknown meeting")
	}
}

func TestJitsiProvision(t *testing.T) {
	j := &JitsiProvisioner{BaseURL: "https://meet.example/"}
	a, err := j.Provision(context.Background(), "x", 60, time.Now())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	b, _ := j.Provision(context.Background(), "x", 60, time.Now())
	if !strings.HasPrefix(a.JoinURL, "https://meet.example/mindhaven-") {
		t.Fatalf("join url = %s", a.JoinURL)
	}
	if a.ID == b.ID || a.Password == "" {
		t.Fatalf("rooms should be unique with a password: %+v %+v", a, b)
	}
	if err := j.AddParticipants(context.Background(), a.ID, []string{"x@example.com"}); err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	if err := j.Release(context.Background(), a.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestJitsiProvisionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&JitsiProvisioner{BaseURL: "https://meet.example"}).Provision(ctx, "x", 60, time.Now()); err == nil {
		t.Fatal("expected error")
	}
}
