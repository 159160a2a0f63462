package principalRepo

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
)

// PrincipalRepository stores accounts that can take part in bookings.
type PrincipalRepository interface {
	Create(ctx context.Context, p *models.Principal) error
	GetByID(ctx context.Context, id string) (*models.Principal, error)
	// MarkPeerCounselor raises the flag. There is no way to lower it.
	MarkPeerCounselor(ctx context.Context, id string) error
	UpdateFCMToken(ctx context.Context, id, token string) error
}

// MongoPrincipalRepo implements PrincipalRepository using MongoDB.
type MongoPrincipalRepo struct {
	coll *mongo.Collection
}

func NewMongoPrincipalRepo(db *mongo.Database) (*MongoPrincipalRepo, error) {
	repo := &MongoPrincipalRepo{coll: db.Collection("principals")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "pseudonymousId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return nil, fmt.Errorf("failed to create principal indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoPrincipalRepo) Create(ctx context.Context, p *models.Principal) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}
	return nil
}

func (r *MongoPrincipalRepo) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Principal
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch principal %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoPrincipalRepo) update(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update principal %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *MongoPrincipalRepo) MarkPeerCounselor(ctx context.Context, id string) error {
	return r.update(ctx, id, bson.M{"isPeerCounselor": true})
}

func (r *MongoPrincipalRepo) UpdateFCMToken(ctx context.Context, id, token string) error {
	return r.update(ctx, id, bson.M{"fcmToken": token})
}

// GormPrincipalRepo implements PrincipalRepository on a SQL database.
type GormPrincipalRepo struct {
	db *gorm.DB
}

func NewGormPrincipalRepo(db *gorm.DB) *GormPrincipalRepo {
	return &GormPrincipalRepo{db: db}
}

func (r *GormPrincipalRepo) Create(ctx context.Context, p *models.Principal) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}
	return nil
}

func (r *GormPrincipalRepo) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	var p models.Principal
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch principal %s: %w", id, err)
	}
	return &p, nil
}

func (r *GormPrincipalRepo) update(ctx context.Context, id string, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Principal{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update principal %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *GormPrincipalRepo) MarkPeerCounselor(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]any{"is_peer_counselor": true})
}

func (r *GormPrincipalRepo) UpdateFCMToken(ctx context.Context, id, token string) error {
	return r.update(ctx, id, map[string]any{"fcm_token": token})
}
