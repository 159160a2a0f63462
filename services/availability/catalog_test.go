package availability

import (
	"context"
	"errors"
	"testing"

	"mindhaven/database/dbtest"
	"mindhaven/models"
	"mindhaven/utils"
)

func TestSetDayValidation(t *testing.T) {
	stores := dbtest.Stores(t)
	catalog := NewCatalog(stores.Availability)
	ctx := context.Background()
	pro := models.Actor{ID: "pro-1", Role: models.RoleProfessional}

	tests := []struct {
		name    string
		actor   models.Actor
		weekday models.Weekday
		slots   []models.AvailabilitySlot
		wantErr error
	}{
		{"overlap", pro, models.Monday, []models.AvailabilitySlot{{Start: 600, End: 660}, {Start: 630, End: 690}}, utils.ErrValidation},
		{"end before start", pro, models.Monday, []models.AvailabilitySlot{{Start: 660, End: 600}}, utils.ErrValidation},
		{"empty range", pro, models.Monday, []models.AvailabilitySlot{{Start: 600, End: 600}}, utils.ErrValidation},
		{"past midnight", pro, models.Monday, []models.AvailabilitySlot{{Start: 1400, End: 1500}}, utils.ErrValidation},
		{"bad weekday", pro, models.Weekday(0), []models.AvailabilitySlot{{Start: 600, End: 660}}, utils.ErrValidation},
		{"other professional", models.Actor{ID: "pro-2", Role: models.RoleProfessional}, models.Monday, nil, utils.ErrForbidden},
		{"client", models.Actor{ID: "pro-1", Role: models.RoleClient}, models.Monday, nil, utils.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.SetDay(ctx, tt.actor, "pro-1", tt.weekday, tt.slots, true)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetDay error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDayReplacesAndSorts(t *testing.T) {
	stores := dbtest.Stores(t)
	catalog := NewCatalog(stores.Availability)
	ctx := context.Background()
	pro := models.Actor{ID: "pro-1", Role: models.RoleProfessional}

	if _, err := catalog.SetDay(ctx, pro, pro.ID, models.Tuesday, []models.AvailabilitySlot{{Start: 540, End: 600}}, true); err != nil {
		t.Fatalf("first SetDay: %v", err)
	}
	// touching slots are allowed
	slots := []models.AvailabilitySlot{{Start: 660, End: 720}, {Start: 600, End: 660}}
	if _, err := catalog.SetDay(ctx, pro, pro.ID, models.Tuesday, slots, true); err != nil {
		t.Fatalf("second SetDay: %v", err)
	}

	day, err := catalog.GetDay(ctx, pro.ID, models.Tuesday)
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if !day.Available || len(day.Slots) != 2 {
		t.Fatalf("unexpected day %+v", day)
	}
	if day.Slots[0].Start != 600 || day.Slots[1].Start != 660 {
		t.Fatalf("slots not sorted: %+v", day.Slots)
	}
}

func TestSetDayEmptyIsUnavailable(t *testing.T) {
	stores := dbtest.Stores(t)
	catalog := NewCatalog(stores.Availability)
	pro := models.Actor{ID: "pro-1", Role: models.RoleProfessional}

	day, err := catalog.SetDay(context.Background(), pro, pro.ID, models.Friday, nil, true)
	if err != nil {
		t.Fatalf("SetDay: %v", err)
	}
	if day.Available {
		t.Fatal("a day without slots must not be available")
	}
}

func TestGetWeekFillsMissingDays(t *testing.T) {
	stores := dbtest.Stores(t)
	catalog := NewCatalog(stores.Availability)
	ctx := context.Background()
	pro := models.Actor{ID: "pro-1", Role: models.RoleProfessional}

	if _, err := catalog.SetDay(ctx, pro, pro.ID, models.Wednesday, []models.AvailabilitySlot{{Start: 600, End: 660}}, true); err != nil {
		t.Fatalf("SetDay: %v", err)
	}
	week, err := catalog.GetWeek(ctx, pro.ID)
	if err != nil {
		t.Fatalf("GetWeek: %v", err)
	}
	if len(week) != 7 {
		t.Fatalf("got %d days, want 7", len(week))
	}
	for i, d := range week {
		if d.Weekday != models.Weekdays()[i] {
			t.Fatalf("day %d is %s", i, d.Weekday)
		}
		if d.Available != (d.Weekday == models.Wednesday) {
			t.Fatalf("%s available = %v", d.Weekday, d.Available)
		}
	}
}
