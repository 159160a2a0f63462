package availabilityRepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindhaven/database"
	"mindhaven/database/dbtest"
	availabilityRepo "mindhaven/database/repository/availability"
	"mindhaven/models"
)

func TestGormUpsertReplacesDay(t *testing.T) {
	repo := availabilityRepo.NewGormAvailabilityRepo(dbtest.Open(t))
	ctx := context.Background()

	if _, err := repo.Get(ctx, "p-1", models.Monday); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Get before upsert err = %v", err)
	}

	day := &models.AvailabilityDay{
		ProfessionalID: "p-1",
		Weekday:        models.Monday,
		Slots:          []models.AvailabilitySlot{{Start: 540, End: 600}, {Start: 600, End: 660}},
		Available:      true,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, day); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	day.Slots = []models.AvailabilitySlot{{Start: 900, End: 960}}
	if err := repo.Upsert(ctx, day); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &models.AvailabilityDay{ProfessionalID: "p-1", Weekday: models.Friday}); err != nil {
		t.Fatalf("Upsert friday: %v", err)
	}

	got, err := repo.Get(ctx, "p-1", models.Monday)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Slots) != 1 || got.Slots[0].Start != 900 || !got.Available {
		t.Fatalf("monday = %+v", got)
	}

	week, err := repo.List(ctx, "p-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(week) != 2 || week[0].Weekday != models.Monday || week[1].Weekday != models.Friday || week[1].Available {
		t.Fatalf("week = %+v", week)
	}
}
