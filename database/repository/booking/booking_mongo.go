package bookingRepo

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
)

// MongoBookingRepo implements BookingRepository using MongoDB.
// Reschedule needs a replica set for its multi-document transaction.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates the repository and ensures its indexes.
func NewMongoBookingRepo(db *mongo.Database) (*MongoBookingRepo, error) {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			// first writer wins: only active bookings carry a slotKey
			Keys: bson.D{{Key: "slotKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slotKey": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "date", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "startsAt", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endsAt", Value: 1}}},
		{Keys: bson.D{{Key: "clientId", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (r *MongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return r.insert(ctx, b)
}

func (r *MongoBookingRepo) insert(ctx context.Context, b *models.Booking) error {
	if b.Status.Active() {
		b.SlotKey = newSlotKey(b)
	}
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return database.ErrSlotTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) HasActiveOverlap(ctx context.Context, professionalID, date string, start, end int) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"professionalId": professionalID,
		"date":           date,
		"status":         bson.M{"$in": models.ActiveStatuses},
		"start":          bson.M{"$lt": end},
		"end":            bson.M{"$gt": start},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return n > 0, nil
}

func transitionUpdate(t models.Transition) bson.M {
	set := bson.M{
		"status":    t.To,
		"updatedAt": t.At,
	}
	if t.To == models.StatusCancelled {
		set["cancellationReason"] = t.CancellationReason
	}
	if t.Meeting != nil {
		set["meetingLink"] = t.Meeting.JoinURL
		set["meetingPassword"] = t.Meeting.Password
		set["meetingId"] = t.Meeting.ID
	}
	update := bson.M{"$set": set}
	if releasesSlot(t.To) {
		update["$unset"] = bson.M{"slotKey": ""}
	}
	return update
}

func (r *MongoBookingRepo) transition(ctx context.Context, id string, from models.BookingStatus, t models.Transition) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id, "status": from}, transitionUpdate(t), opts).Decode(&b)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to transition booking %s: %w", id, err)
	}

	n, cerr := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if cerr != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, cerr)
	}
	if n == 0 {
		return nil, database.ErrNotFound
	}
	return nil, database.ErrStatusMismatch
}

func (r *MongoBookingRepo) Transition(ctx context.Context, id string, from models.BookingStatus, t models.Transition) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return r.transition(ctx, id, from, t)
}

func (r *MongoBookingRepo) Reschedule(ctx context.Context, originalID, reason string, replacement *models.Booking) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var original *models.Booking
	txnFn := func(sc mongo.SessionContext) error {
		var err error
		original, err = r.transition(sc, originalID, models.StatusConfirmed, models.Transition{
			To:                 models.StatusCancelled,
			CancellationReason: reason,
			At:                 replacement.CreatedAt,
		})
		if err != nil {
			return err
		}
		return r.insert(sc, replacement)
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, database.ErrSlotTaken) || errors.Is(err, database.ErrStatusMismatch) || errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reschedule transaction failed: %w", err)
	}
	return original, nil
}

func (r *MongoBookingRepo) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"id": id, "status": models.StatusConfirmed, "reminderSent": false}
	update := bson.M{"$set": bson.M{"reminderSent": true, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder for booking %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoBookingRepo) ListDueReminders(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"status":       models.StatusConfirmed,
		"reminderSent": false,
		"startsAt":     bson.M{"$gte": from, "$lte": to},
	}
	out, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return out, nil
}

func (r *MongoBookingRepo) ListElapsedConfirmed(ctx context.Context, endedBefore time.Time) ([]models.Booking, error) {
	filter := bson.M{"status": models.StatusConfirmed, "endsAt": bson.M{"$lt": endedBefore}}
	out, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "endsAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list elapsed bookings: %w", err)
	}
	return out, nil
}

func (r *MongoBookingRepo) ListStale(ctx context.Context, startedBefore time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"status":   bson.M{"$in": []models.BookingStatus{models.StatusPending, models.StatusRescheduled}},
		"startsAt": bson.M{"$lt": startedBefore},
	}
	out, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale bookings: %w", err)
	}
	return out, nil
}

func (r *MongoBookingRepo) ListByParticipant(ctx context.Context, principalID string, limit, offset int) ([]models.Booking, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"clientId": principalID},
		bson.M{"professionalId": principalID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "startsAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit)).SetSkip(int64(offset))
	}
	out, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", principalID, err)
	}
	return out, nil
}
