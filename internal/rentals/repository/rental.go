package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	rentalserrors "staybook/internal/rentals/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Rental_listings"
)

type RentalRepository interface {
	Create(ctx context.Context, listing *model.RentalListing) error
	FindByID(ctx context.Context, id string) (*model.RentalListing, error)
	FindByPropertyID(ctx context.Context, propertyID string) (*model.RentalListing, error)
	FindActive(ctx context.Context) ([]*model.RentalListing, error)
	Search(ctx context.Context, filter model.RentalSearchFilter) ([]*model.RentalListing, error)
	Update(ctx context.Context, id string, listing *model.RentalListing) error
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type mongoRentalRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRentalRepository(cfg *config.Config) RentalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRentalRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Create inserts the listing and fills in its ID. A second listing for the
// same property trips the unique index and returns ErrDuplicateProperty.
func (r *mongoRentalRepository) Create(ctx context.Context, listing *model.RentalListing) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	listing.ID = ""
	listing.CreatedAt = now
	listing.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", rentalserrors.ErrDuplicateProperty, listing.PropertyID)
		}
		return fmt.Errorf("failed to create rental listing: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		listing.ID = oid.Hex()
	}

	return nil
}

func (r *mongoRentalRepository) FindByID(ctx context.Context, id string) (*model.RentalListing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID}, id)
}

func (r *mongoRentalRepository) FindByPropertyID(ctx context.Context, propertyID string) (*model.RentalListing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"property_id": propertyID}, propertyID)
}

func (r *mongoRentalRepository) findOne(ctx context.Context, filter bson.M, key string) (*model.RentalListing, error) {
	var listing model.RentalListing
	err := r.collection.FindOne(ctx, filter).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", rentalserrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to find rental listing: %w", err)
	}
	return &listing, nil
}

func (r *mongoRentalRepository) FindActive(ctx context.Context) ([]*model.RentalListing, error) {
	return r.Search(ctx, model.RentalSearchFilter{})
}

// Search returns active listings matching the rate range and capacity in the
// filter. Availability is not checked here.
func (r *mongoRentalRepository) Search(ctx context.Context, filter model.RentalSearchFilter) ([]*model.RentalListing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := bson.M{"active": true}

	rate := bson.M{}
	if filter.MinPrice != nil {
		rate["$gte"] = filter.MinPrice.Cents()
	}
	if filter.MaxPrice != nil {
		rate["$lte"] = filter.MaxPrice.Cents()
	}
	if len(rate) > 0 {
		query["nightly_rate_cents"] = rate
	}
	if filter.Guests > 0 {
		query["max_guests"] = bson.M{"$gte": filter.Guests}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "nightly_rate_cents", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query rental listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := []*model.RentalListing{}
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode rental listings: %w", err)
	}

	return listings, nil
}

func (r *mongoRentalRepository) Update(ctx context.Context, id string, listing *model.RentalListing) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, id)
	}

	listing.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"nightly_rate_cents": listing.NightlyRate,
			"cleaning_fee_cents": listing.CleaningFee,
			"max_guests":         listing.MaxGuests,
			"rules":              listing.Rules,
			"check_in_time":      listing.CheckInTime,
			"check_out_time":     listing.CheckOutTime,
			"active":             listing.Active,
			"updated_at":         listing.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update rental listing: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", rentalserrors.ErrNotFound, id)
	}

	return nil
}

// SetActive matches on ID only, so repeating it is harmless.
func (r *mongoRentalRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"active":     active,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update rental listing status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", rentalserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoRentalRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count rental listings: %w", err)
	}
	return count, nil
}

func (r *mongoRentalRepository) CountActive(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count active rental listings: %w", err)
	}
	return count, nil
}
