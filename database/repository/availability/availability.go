package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindhaven/database"
	"mindhaven/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvailabilityRepository stores one AvailabilityDay per (professional, weekday).
type AvailabilityRepository interface {
	// Upsert replaces the whole day in a single write.
	Upsert(ctx context.Context, day *models.AvailabilityDay) error
	// Get returns database.ErrNotFound when the day was never set.
	Get(ctx context.Context, professionalID string, weekday models.Weekday) (*models.AvailabilityDay, error)
	List(ctx context.Context, professionalID string) ([]models.AvailabilityDay, error)
}

// MongoAvailabilityRepo implements AvailabilityRepository using MongoDB.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

func NewMongoAvailabilityRepo(db *mongo.Database) (*MongoAvailabilityRepo, error) {
	repo := &MongoAvailabilityRepo{coll: db.Collection("availability")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "professionalId", Value: 1}, {Key: "weekday", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create availability indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoAvailabilityRepo) Upsert(ctx context.Context, day *models.AvailabilityDay) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"professionalId": day.ProfessionalID, "weekday": day.Weekday}
	_, err := r.coll.ReplaceOne(ctx, filter, day, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save availability for %s on %s: %w", day.ProfessionalID, day.Weekday, err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) Get(ctx context.Context, professionalID string, weekday models.Weekday) (*models.AvailabilityDay, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var day models.AvailabilityDay
	err := r.coll.FindOne(ctx, bson.M{"professionalId": professionalID, "weekday": weekday}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}
	return &day, nil
}

func (r *MongoAvailabilityRepo) List(ctx context.Context, professionalID string) ([]models.AvailabilityDay, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "weekday", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"professionalId": professionalID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	defer cursor.Close(ctx)

	var days []models.AvailabilityDay
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("failed to decode availability: %w", err)
	}
	return days, nil
}

// GormAvailabilityRepo implements AvailabilityRepository on a SQL database.
type GormAvailabilityRepo struct {
	db *gorm.DB
}

func NewGormAvailabilityRepo(db *gorm.DB) *GormAvailabilityRepo {
	return &GormAvailabilityRepo{db: db}
}

func (r *GormAvailabilityRepo) Upsert(ctx context.Context, day *models.AvailabilityDay) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "professional_id"}, {Name: "weekday"}},
		DoUpdates: clause.AssignmentColumns([]string{"slots", "available", "updated_at"}),
	}).Create(day).Error
	if err != nil {
		return fmt.Errorf("failed to save availability for %s on %s: %w", day.ProfessionalID, day.Weekday, err)
	}
	return nil
}

func (r *GormAvailabilityRepo) Get(ctx context.Context, professionalID string, weekday models.Weekday) (*models.AvailabilityDay, error) {
	var day models.AvailabilityDay
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND weekday = ?", professionalID, weekday).
		First(&day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}
	return &day, nil
}

func (r *GormAvailabilityRepo) List(ctx context.Context, professionalID string) ([]models.AvailabilityDay, error) {
	var days []models.AvailabilityDay
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("weekday ASC").
		Find(&days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return days, nil
}
