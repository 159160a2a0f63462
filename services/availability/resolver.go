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

// MaxUpcomingWeeks caps how far ahead Upcoming looks.
const MaxUpcomingWeeks = 8

// OverlapChecker reports whether active bookings already occupy a range.
type OverlapChecker interface {
	HasActiveOverlap(ctx context.Context, professionalID, date string, start, end int) (bool, error)
}

// Resolver turns recurring slots into concrete dates and decides whether they are free.
type Resolver struct {
	Availability availabilityRepo.AvailabilityRepository
	Bookings     OverlapChecker
	Location     *time.Location
}

func NewResolver(avail availabilityRepo.AvailabilityRepository, bookings OverlapChecker, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Availability: avail, Bookings: bookings, Location: loc}
}

// NextOccurrence returns the first date strictly after from's calendar day that falls on weekday.
// When from is already that weekday the result is a week later, never the same day.
func NextOccurrence(weekday models.Weekday, from time.Time) time.Time {
	days := models.WeekdayOf(from).DaysUntil(weekday)
	if days == 0 {
		days = 7
	}
	y, m, d := from.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, from.Location())
}

// IsFree is true when the range exactly matches an available slot of that weekday and no
// active booking of the professional overlaps it on date.
func (r *Resolver) IsFree(ctx context.Context, professionalID, date string, start, end int) (bool, error) {
	day, err := time.ParseInLocation(models.DateLayout, date, r.Location)
	if err != nil {
		return false, utils.NewValidation("invalid date %q", date)
	}

	avail, err := r.Availability.Get(ctx, professionalID, models.WeekdayOf(day))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is free: %w", err)
	}
	if !avail.HasSlot(start, end) {
		return false, nil
	}

	taken, err := r.Bookings.HasActiveOverlap(ctx, professionalID, date, start, end)
	if err != nil {
		return false, fmt.Errorf("is free: %w", err)
	}
	return !taken, nil
}

// Upcoming lists the free concrete sessions of the professional over the next weeks, soonest first.
func (r *Resolver) Upcoming(ctx context.Context, professionalID string, from time.Time, weeks int) ([]models.UpcomingSession, error) {
	if weeks < 1 {
		weeks = 1
	}
	if weeks > MaxUpcomingWeeks {
		weeks = MaxUpcomingWeeks
	}

	days, err := r.Availability.List(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("upcoming: %w", err)
	}

	from = from.In(r.Location)
	out := []models.UpcomingSession{}
	for _, day := range days {
		if !day.Available {
			continue
		}
		first := NextOccurrence(day.Weekday, from)
		for k := 0; k < weeks; k++ {
			date := first.AddDate(0, 0, 7*k).Format(models.DateLayout)
			for _, slot := range day.Slots {
				taken, err := r.Bookings.HasActiveOverlap(ctx, professionalID, date, slot.Start, slot.End)
				if err != nil {
					return nil, fmt.Errorf("upcoming: %w", err)
				}
				if taken {
					continue
				}
				out = append(out, models.UpcomingSession{
					Date:    date,
					Weekday: day.Weekday,
					Start:   slot.Start,
					End:     slot.End,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}
