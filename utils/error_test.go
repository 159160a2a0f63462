package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewNotFound("booking %s", "b-1"), http.StatusNotFound},
		{NewForbidden("nope"), http.StatusForbidden},
		{NewInvalidTransition("Completed to Confirmed"), http.StatusConflict},
		{NewSlotConflict("taken"), http.StatusConflict},
		{NewValidation("bad range"), http.StatusUnprocessableEntity},
		{NewProvisioningFailure(errors.New("zoom down")), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", NewNotFound("x")), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestAppErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("confirm: %w", NewSlotConflict("slot %d", 600))
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatal("expected SlotConflict match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("unexpected NotFound match")
	}

	cause := errors.New("timeout")
	if !errors.Is(NewProvisioningFailure(cause), cause) {
		t.Fatal("provisioning failure should unwrap to its cause")
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err      error
		status   int
		wantCode string
	}{
		{NewValidation("end must follow start"), http.StatusUnprocessableEntity, CodeValidation},
		{errors.New("db exploded"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		RespondError(c, tc.err)

		if w.Code != tc.status {
			t.Fatalf("status = %d, want %d", w.Code, tc.status)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Code != tc.wantCode {
			t.Fatalf("code = %q, want %q", body.Code, tc.wantCode)
		}
		if tc.wantCode == "" && body.Message != "Internal Server Error" {
			t.Fatalf("internal error leaked: %q", body.Message)
		}
	}
}
