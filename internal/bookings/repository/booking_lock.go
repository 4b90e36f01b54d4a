package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository stores the advisory locks that serialise booking
// writes per listing.
type BookingLockRepository interface {
	Create(ctx context.Context, lock *model.BookingLock) error
	Release(ctx context.Context, id, owner string) error
	DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error)
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Create returns ErrLockHeld if a lock with the same ID already exists.
func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if lock.CreatedAt.IsZero() {
		lock.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrLockHeld, lock.ID)
		}
		return fmt.Errorf("failed to create booking lock: %w", err)
	}
	return nil
}

// Release deletes the lock only while owner still holds it, so a request
// whose lock expired and was taken over cannot free its successor's lock.
func (r *mongoBookingLockRepository) Release(ctx context.Context, id, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}

// DeleteExpired removes the lock if it expired at or before now and reports
// whether it did.
func (r *mongoBookingLockRepository) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        id,
		"expires_at": bson.M{"$lte": now},
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete expired booking lock: %w", err)
	}
	return result.DeletedCount > 0, nil
}
