package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"

	// GuardCollectionName holds one version document per listing. Every
	// booking write bumps it inside its transaction, so two transactions
	// writing bookings for the same listing cannot both commit.
	GuardCollectionName = "Booking_guards"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	guards     *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.BookingStatus) (int64, error)
	HasOverlap(ctx context.Context, listingID string, start, end model.Date, excludeID string) (bool, error)
	FindBlocking(ctx context.Context, listingID string, from, to model.Date) ([]*model.Booking, error)
	ListByListing(ctx context.Context, listingID string) ([]*model.Booking, error)
	ListByGuestEmail(ctx context.Context, email string) ([]*model.Booking, error)
	ListByStatus(ctx context.Context, status model.BookingStatus) ([]*model.Booking, error)
	ListUpcoming(ctx context.Context, today model.Date) ([]*model.Booking, error)
	ListActive(ctx context.Context, today model.Date) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error)
	GuardListing(ctx context.Context, listingID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		guards:     db.Collection(GuardCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = ""
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

// GuardListing bumps the listing's version document. Called inside a
// transaction, a concurrent transaction doing the same fails with a write
// conflict and is retried against a fresh snapshot.
func (r *mongoBookingRepository) GuardListing(ctx context.Context, listingID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.guards.UpdateOne(ctx,
		bson.M{"_id": listingID},
		bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to guard listing %s: %w", listingID, err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *mongoBookingRepository) CountByStatus(ctx context.Context, status model.BookingStatus) (int64, error) {
	return r.count(ctx, bson.M{"status": status})
}

// HasOverlap reports whether a blocking booking of the listing intersects
// [start, end). excludeID, when set, leaves that booking out of the check.
func (r *mongoBookingRepository) HasOverlap(ctx context.Context, listingID string, start, end model.Date, excludeID string) (bool, error) {
	filter := overlapFilter(listingID, start, end)
	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return count > 0, nil
}

// FindBlocking returns the listing's blocking bookings that intersect
// [from, to), ordered by start date.
func (r *mongoBookingRepository) FindBlocking(ctx context.Context, listingID string, from, to model.Date) ([]*model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	return r.find(ctx, overlapFilter(listingID, from, to), opts)
}

func (r *mongoBookingRepository) ListByListing(ctx context.Context, listingID string) ([]*model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	return r.find(ctx, bson.M{"rental_id": listingID}, opts)
}

func (r *mongoBookingRepository) ListByGuestEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"guest_email": email}, opts)
}

func (r *mongoBookingRepository) ListByStatus(ctx context.Context, status model.BookingStatus) ([]*model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	return r.find(ctx, bson.M{"status": status}, opts)
}

// ListUpcoming returns confirmed bookings starting today or later.
func (r *mongoBookingRepository) ListUpcoming(ctx context.Context, today model.Date) ([]*model.Booking, error) {
	filter := bson.M{
		"status":     model.BookingConfirmed,
		"start_date": bson.M{"$gte": today},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	return r.find(ctx, filter, opts)
}

// ListActive returns confirmed bookings whose stay includes today.
func (r *mongoBookingRepository) ListActive(ctx context.Context, today model.Date) ([]*model.Booking, error) {
	filter := bson.M{
		"status":     model.BookingConfirmed,
		"start_date": bson.M{"$lte": today},
		"end_date":   bson.M{"$gte": today},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	return r.find(ctx, filter, opts)
}

// UpdateStatus moves the booking to status to, but only while its current
// status is one of from. It returns ErrStatusChanged when the booking exists
// in another status.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrStatusChanged, id)
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// overlapFilter matches blocking bookings of the listing with
// start < end and end > start. Touching ranges do not match.
func overlapFilter(listingID string, start, end model.Date) bson.M {
	return bson.M{
		"rental_id":  listingID,
		"status":     bson.M{"$in": model.BlockingStatuses},
		"start_date": bson.M{"$lt": end},
		"end_date":   bson.M{"$gt": start},
	}
}
