package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"mindhaven/database"
	availabilityRepo "mindhaven/database/repository/availability"
	"mindhaven/models"
	"mindhaven/utils"
)

// Catalog manages each professional's recurring weekly availability.
type Catalog struct {
	Repo availabilityRepo.AvailabilityRepository
	Now  func() time.Time
}

func NewCatalog(repo availabilityRepo.AvailabilityRepository) *Catalog {
	return &Catalog{Repo: repo, Now: time.Now}
}

// SetDay replaces the professional's slots for one weekday. The stored day is only
// available when requested so and it has at least one slot.
func (c *Catalog) SetDay(
	ctx context.Context,
	actor models.Actor,
	professionalID string,
	weekday models.Weekday,
	slots []models.AvailabilitySlot,
	available bool,
) (*models.AvailabilityDay, error) {
	if actor.Role != models.RoleProfessional || actor.ID != professionalID {
		return nil, utils.NewForbidden("only the professional may edit their availability")
	}
	if !weekday.Valid() {
		return nil, utils.NewValidation("unknown weekday %d", int(weekday))
	}

	sorted, err := normalizeSlots(slots)
	if err != nil {
		return nil, err
	}

	day := &models.AvailabilityDay{
		ProfessionalID: professionalID,
		Weekday:        weekday,
		Slots:          sorted,
		Available:      available && len(sorted) > 0,
		UpdatedAt:      c.Now().UTC(),
	}
	if err := c.Repo.Upsert(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// normalizeSlots validates bounds and returns the slots ordered by start.
// Touching slots are fine; overlapping ones are not.
func normalizeSlots(slots []models.AvailabilitySlot) ([]models.AvailabilitySlot, error) {
	sorted := make([]models.AvailabilitySlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i, s := range sorted {
		if s.Start < 0 || s.End > models.MinutesPerDay {
			return nil, utils.NewValidation("slot %s is outside the day", s)
		}
		if s.End <= s.Start {
			return nil, utils.NewValidation("slot %s: start must be before end", s)
		}
		if i > 0 && sorted[i-1].Overlaps(s) {
			return nil, utils.NewValidation("slot %s overlaps %s", s, sorted[i-1])
		}
	}
	return sorted, nil
}

// GetDay returns the stored day, or an empty unavailable day when none was set.
func (c *Catalog) GetDay(ctx context.Context, professionalID string, weekday models.Weekday) (*models.AvailabilityDay, error) {
	if !weekday.Valid() {
		return nil, utils.NewValidation("unknown weekday %d", int(weekday))
	}
	day, err := c.Repo.Get(ctx, professionalID, weekday)
	if errors.Is(err, database.ErrNotFound) {
		return emptyDay(professionalID, weekday), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return day, nil
}

// GetWeek returns all seven days, Monday first.
func (c *Catalog) GetWeek(ctx context.Context, professionalID string) ([]models.AvailabilityDay, error) {
	stored, err := c.Repo.List(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("get week: %w", err)
	}
	byDay := make(map[models.Weekday]models.AvailabilityDay, len(stored))
	for _, d := range stored {
		byDay[d.Weekday] = d
	}

	week := make([]models.AvailabilityDay, 0, 7)
	for _, wd := range models.Weekdays() {
		if d, ok := byDay[wd]; ok {
			week = append(week, d)
			continue
		}
		week = append(week, *emptyDay(professionalID, wd))
	}
	return week, nil
}

func emptyDay(professionalID string, weekday models.Weekday) *models.AvailabilityDay {
	return &models.AvailabilityDay{
		ProfessionalID: professionalID,
		Weekday:        weekday,
		Slots:          []models.AvailabilitySlot{},
		Available:      false,
	}
}
