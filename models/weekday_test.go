package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWeekdayOf(t *testing.T) {
	tests := []struct {
		date string
		want Weekday
	}{
		{"2026-10-19", Monday},
		{"2026-10-21", Wednesday},
		{"2026-10-24", Saturday},
		{"2026-10-25", Sunday},
	}
	for _, tt := range tests {
		d, err := time.Parse(DateLayout, tt.date)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.date, err)
		}
		if got := WeekdayOf(d); got != tt.want {
			t.Errorf("WeekdayOf(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		from, to Weekday
		want     int
	}{
		{Monday, Monday, 0},
		{Monday, Tuesday, 1},
		{Sunday, Monday, 1},
		{Saturday, Friday, 6},
		{Wednesday, Sunday, 4},
	}
	for _, tt := range tests {
		if got := tt.from.DaysUntil(tt.to); got != tt.want {
			t.Errorf("%s.DaysUntil(%s) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	for _, in := range []string{"monday", "Mon", " MONDAY "} {
		got, err := ParseWeekday(in)
		if err != nil || got != Monday {
			t.Errorf("ParseWeekday(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}

func TestWeekdayJSON(t *testing.T) {
	raw, err := json.Marshal(Thursday)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"thursday"` {
		t.Fatalf("got %s", raw)
	}
	var w Weekday
	if err := json.Unmarshal([]byte(`"fri"`), &w); err != nil || w != Friday {
		t.Fatalf("unmarshal fri = %v, %v", w, err)
	}
	if _, err := json.Marshal(Weekday(9)); err == nil {
		t.Fatal("expected error for invalid weekday")
	}
}

func TestSlotOverlaps(t *testing.T) {
	a := AvailabilitySlot{Start: 600, End: 660}
	tests := []struct {
		b    AvailabilitySlot
		want bool
	}{
		{AvailabilitySlot{Start: 660, End: 720}, false},
		{AvailabilitySlot{Start: 540, End: 600}, false},
		{AvailabilitySlot{Start: 630, End: 690}, true},
		{AvailabilitySlot{Start: 610, End: 620}, true},
	}
	for _, tt := range tests {
		if got := a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%s overlaps %s = %v, want %v", a, tt.b, got, tt.want)
		}
	}
}

func TestSessionBounds(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	start, end, err := SessionBounds("2026-10-21", 600, 660, loc)
	if err != nil {
		t.Fatalf("SessionBounds: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 0 || end.Hour() != 11 {
		t.Fatalf("unexpected bounds %v - %v", start, end)
	}
	if got := start.UTC().Hour(); got != 7 {
		t.Fatalf("UTC hour = %d, want 7", got)
	}
	if _, _, err := SessionBounds("21/10/2026", 600, 660, loc); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestStatusClasses(t *testing.T) {
	for _, s := range ActiveStatuses {
		if !s.Active() || s.Terminal() {
			t.Errorf("%s should be active", s)
		}
	}
	for _, s := range []BookingStatus{StatusCompleted, StatusCancelled} {
		if s.Active() || !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
