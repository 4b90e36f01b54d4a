package service

import (
	"context"
	"errors"
	"sync"

	rentalserrors "staybook/internal/rentals/errors"
	"staybook/internal/rentals/repository"
	"staybook/internal/rentals/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

const enrichConcurrency = 8

// PropertyLookup is the property service as seen by the registry.
type PropertyLookup interface {
	GetProperty(ctx context.Context, propertyID string) (*model.Property, error)
	LookupProperty(ctx context.Context, propertyID string) (*model.Property, error)
}

// BookingLedger answers the booking questions the registry needs for search
// and statistics.
type BookingLedger interface {
	HasOverlap(ctx context.Context, listingID string, start, end model.Date, excludeID string) (bool, error)
	CountByStatus(ctx context.Context, status model.BookingStatus) (int64, error)
}

type RentalService interface {
	GetByID(ctx context.Context, id string) (*model.RentalListing, error)
	GetByPropertyID(ctx context.Context, propertyID string) (*model.RentalListing, error)
	Create(ctx context.Context, listing *model.RentalListing) error
	Update(ctx context.Context, id string, update *model.RentalListingUpdate) (*model.RentalListing, error)
	Deactivate(ctx context.Context, id string) error
	ResolveOrAutoProvision(ctx context.Context, propertyID string) (*model.RentalListing, error)
	ListActive(ctx context.Context) ([]*model.RentalListing, error)
	Search(ctx context.Context, filter model.RentalSearchFilter) ([]*model.RentalListing, error)
	Statistics(ctx context.Context) (*model.RentalStatistics, error)
}

type rentalService struct {
	repo       repository.RentalRepository
	ledger     BookingLedger
	properties PropertyLookup
	validator  *validator.RentalValidator
	defaults   model.ListingDefaults
	cfg        *config.Config
}

func NewRentalService(
	repo repository.RentalRepository,
	ledger BookingLedger,
	properties PropertyLookup,
	validator *validator.RentalValidator,
	defaults model.ListingDefaults,
	cfg *config.Config,
) RentalService {
	return &rentalService{
		repo:       repo,
		ledger:     ledger,
		properties: properties,
		validator:  validator,
		defaults:   defaults,
		cfg:        cfg,
	}
}

func (s *rentalService) GetByID(ctx context.Context, id string) (*model.RentalListing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rental listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, "Failed to retrieve rental listing", id)
	}

	s.enrich(ctx, listing)
	return listing, nil
}

func (s *rentalService) GetByPropertyID(ctx context.Context, propertyID string) (*model.RentalListing, error) {
	propertyID = sanitizer.TrimAndNormalize(propertyID)
	if propertyID == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	listing, err := s.repo.FindByPropertyID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, rentalserrors.ErrNotFound) {
			return nil, apperrors.NotFound("No rental listing found for property ID: " + propertyID)
		}
		s.cfg.Log.Error("Failed to get rental listing by property ID",
			"property_id", propertyID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve rental listing", err)
	}

	s.enrich(ctx, listing)
	return listing, nil
}

func (s *rentalService) Create(ctx context.Context, listing *model.RentalListing) error {
	sanitizer.SanitizeListing(listing)
	s.applyDefaults(listing)

	if err := s.validator.Validate(listing); err != nil {
		s.cfg.Log.Warn("Rental listing validation failed",
			"property_id", listing.PropertyID,
			"error", err,
		)
		return validationError("Rental listing validation failed", err)
	}

	property, err := s.properties.GetProperty(ctx, listing.PropertyID)
	if err != nil {
		s.cfg.Log.Warn("Could not verify property for new rental listing",
			"property_id", listing.PropertyID,
			"error", err,
		)
		return asUpstreamError(err)
	}

	if _, err := s.repo.FindByPropertyID(ctx, listing.PropertyID); err == nil {
		return apperrors.Conflict("Property is already activated for rental")
	} else if !errors.Is(err, rentalserrors.ErrNotFound) {
		return apperrors.Internal("Failed to check existing rental listing", err)
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		if errors.Is(err, rentalserrors.ErrDuplicateProperty) {
			return apperrors.Conflict("Property is already activated for rental")
		}
		s.cfg.Log.Error("Failed to create rental listing",
			"property_id", listing.PropertyID,
			"error", err,
		)
		return apperrors.Internal("Failed to create rental listing", err)
	}

	listing.Property = property.Summary()
	s.cfg.Log.Info("Rental listing created successfully",
		"id", listing.ID,
		"property_id", listing.PropertyID,
		"nightly_rate", listing.NightlyRate.String(),
	)
	return nil
}

func (s *rentalService) Update(ctx context.Context, id string, update *model.RentalListingUpdate) (*model.RentalListing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rental listing ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, "Failed to check rental listing existence", id)
	}

	sanitizer.SanitizeListingUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Rental listing update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	merged := *existing
	update.Apply(&merged)
	if err := s.validator.Validate(&merged); err != nil {
		return nil, validationError("Rental listing validation failed", err)
	}

	if err := s.repo.Update(ctx, id, &merged); err != nil {
		return nil, s.mapRepoError(err, "Failed to update rental listing", id)
	}

	s.cfg.Log.Info("Rental listing updated successfully", "id", id)
	s.enrich(ctx, &merged)
	return &merged, nil
}

func (s *rentalService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Rental listing ID cannot be empty")
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return s.mapRepoError(err, "Failed to deactivate rental listing", id)
	}

	s.cfg.Log.Info("Rental listing deactivated", "id", id)
	return nil
}

func (s *rentalService) ListActive(ctx context.Context) ([]*model.RentalListing, error) {
	listings, err := s.repo.FindActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list active rental listings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rental listings", err)
	}

	s.enrichAll(ctx, listings)
	return listings, nil
}

func (s *rentalService) Search(ctx context.Context, filter model.RentalSearchFilter) ([]*model.RentalListing, error) {
	if filter.StartDate.IsZero() != filter.EndDate.IsZero() {
		return nil, apperrors.InvalidInput("Both startDate and endDate are required to filter by availability")
	}
	if filter.HasDates() && !filter.EndDate.After(filter.StartDate) {
		return nil, apperrors.InvalidInput("End date must be after start date")
	}
	if filter.Guests < 0 {
		return nil, apperrors.InvalidInput("Number of guests cannot be negative")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperrors.InvalidInput("minPrice cannot be greater than maxPrice")
	}

	candidates, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to search rental listings", "error", err)
		return nil, apperrors.Internal("Failed to search rental listings", err)
	}

	listings := candidates
	if filter.HasDates() {
		listings = make([]*model.RentalListing, 0, len(candidates))
		for _, l := range candidates {
			taken, err := s.ledger.HasOverlap(ctx, l.ID, filter.StartDate, filter.EndDate, "")
			if err != nil {
				s.cfg.Log.Error("Failed to check rental availability",
					"rental_id", l.ID,
					"error", err,
				)
				return nil, apperrors.Internal("Failed to check rental availability", err)
			}
			if !taken {
				listings = append(listings, l)
			}
		}
	}

	s.cfg.Log.Debug("Rental search completed",
		"start_date", filter.StartDate.String(),
		"end_date", filter.EndDate.String(),
		"guests", filter.Guests,
		"candidates", len(candidates),
		"results_count", len(listings),
	)

	s.enrichAll(ctx, listings)
	return listings, nil
}

func (s *rentalService) Statistics(ctx context.Context) (*model.RentalStatistics, error) {
	var stats model.RentalStatistics

	counters := []struct {
		name  string
		dst   *int64
		count func(ctx context.Context) (int64, error)
	}{
		{"active rentals", &stats.ActiveRentals, s.repo.CountActive},
		{"total rentals", &stats.TotalRentals, s.repo.Count},
		{"pending bookings", &stats.PendingBookings, s.countStatus(model.BookingPending)},
		{"confirmed bookings", &stats.ConfirmedBookings, s.countStatus(model.BookingConfirmed)},
		{"completed bookings", &stats.CompletedBookings, s.countStatus(model.BookingCompleted)},
		{"cancelled bookings", &stats.CancelledBookings, s.countStatus(model.BookingCancelled)},
	}

	errs := make([]error, len(counters))
	var wg sync.WaitGroup
	wg.Add(len(counters))
	for i, c := range counters {
		go func() {
			defer wg.Done()
			n, err := c.count(ctx)
			if err != nil {
				s.cfg.Log.Error("Failed to count "+c.name, "error", err)
				errs[i] = err
				return
			}
			*c.dst = n
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, apperrors.Internal("Failed to compute rental statistics", err)
	}
	return &stats, nil
}

func (s *rentalService) countStatus(status model.BookingStatus) func(ctx context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		return s.ledger.CountByStatus(ctx, status)
	}
}

func (s *rentalService) applyDefaults(listing *model.RentalListing) {
	listing.ID = ""
	listing.Property = nil
	listing.Active = true
	if listing.CheckInTime == "" {
		listing.CheckInTime = s.defaults.CheckInTime
	}
	if listing.CheckOutTime == "" {
		listing.CheckOutTime = s.defaults.CheckOutTime
	}
	if !listing.CleaningFeeSet && listing.CleaningFee == 0 {
		listing.CleaningFee = s.defaults.CleaningFee
	}
}

// enrich attaches the property summary. The property service being down
// must not break listing reads, so failures only log.
func (s *rentalService) enrich(ctx context.Context, listing *model.RentalListing) {
	property, err := s.properties.LookupProperty(ctx, listing.PropertyID)
	if err != nil {
		s.cfg.Log.Warn("Could not fetch property details",
			"property_id", listing.PropertyID,
			"rental_id", listing.ID,
			"error", err,
		)
		return
	}
	listing.Property = property.Summary()
}

func (s *rentalService) enrichAll(ctx context.Context, listings []*model.RentalListing) {
	sem := make(chan struct{}, enrichConcurrency)
	var wg sync.WaitGroup
	for _, l := range listings {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.enrich(ctx, l)
		}()
	}
	wg.Wait()
}

func (s *rentalService) mapRepoError(err error, message, id string) error {
	if errors.Is(err, rentalserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Rental listing", id)
	}
	if errors.Is(err, rentalserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid rental listing ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

// asUpstreamError keeps the property client's classification and treats
// anything unclassified as the collaborator being unavailable.
func asUpstreamError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.BadGateway("Property service", err)
}
