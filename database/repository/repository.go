package repository

import (
	"fmt"

	availabilityRepo "mindhaven/database/repository/availability"
	bookingRepo "mindhaven/database/repository/booking"
	principalRepo "mindhaven/database/repository/principal"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Re-export the repository interfaces.
type BookingRepository = bookingRepo.BookingRepository

type AvailabilityRepository = availabilityRepo.AvailabilityRepository

type PrincipalRepository = principalRepo.PrincipalRepository

// Stores bundles the record store repositories for one backend.
type Stores struct {
	Bookings     BookingRepository
	Availability AvailabilityRepository
	Principals   PrincipalRepository
}

// NewMongoStores builds the MongoDB-backed repositories, creating indexes.
func NewMongoStores(db *mongo.Database) (*Stores, error) {
	bookings, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		return nil, fmt.Errorf("booking repo: %w", err)
	}
	availability, err := availabilityRepo.NewMongoAvailabilityRepo(db)
	if err != nil {
		return nil, fmt.Errorf("availability repo: %w", err)
	}
	principals, err := principalRepo.NewMongoPrincipalRepo(db)
	if err != nil {
		return nil, fmt.Errorf("principal repo: %w", err)
	}
	return &Stores{Bookings: bookings, Availability: availability, Principals: principals}, nil
}

// NewGormStores builds the SQL-backed repositories. The schema must already be migrated.
func NewGormStores(db *gorm.DB) *Stores {
	return &Stores{
		Bookings:     bookingRepo.NewGormBookingRepo(db),
		Availability: availabilityRepo.NewGormAvailabilityRepo(db),
		Principals:   principalRepo.NewGormPrincipalRepo(db),
	}
}
