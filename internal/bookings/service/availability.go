package service

import (
	"context"
	"sort"

	"staybook/internal/bookings/repository"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

// AvailabilityService answers occupancy questions without taking the
// listing lock.
type AvailabilityService interface {
	IsAvailable(ctx context.Context, listingID string, start, end model.Date) (bool, error)
	BookedDates(ctx context.Context, propertyID string) ([]model.Date, error)
}

type availabilityService struct {
	repo     repository.BookingRepository
	listings ListingResolver
	cfg      *config.Config
}

func NewAvailabilityService(repo repository.BookingRepository, listings ListingResolver, cfg *config.Config) AvailabilityService {
	return &availabilityService{
		repo:     repo,
		listings: listings,
		cfg:      cfg,
	}
}

// IsAvailable reports whether no blocking booking intersects [start, end).
func (s *availabilityService) IsAvailable(ctx context.Context, listingID string, start, end model.Date) (bool, error) {
	listingID = sanitizer.TrimAndNormalize(listingID)
	if listingID == "" {
		return false, apperrors.InvalidInput("Rental listing ID cannot be empty")
	}
	if start.IsZero() || end.IsZero() {
		return false, apperrors.InvalidInput("Both startDate and endDate are required")
	}
	if !end.After(start) {
		return false, apperrors.InvalidInput("End date must be after start date")
	}

	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return false, err
	}

	overlap, err := s.repo.HasOverlap(ctx, listingID, start, end, "")
	if err != nil {
		s.cfg.Log.Error("Failed to check booking overlap", "rental_id", listingID, "error", err)
		return false, apperrors.Internal("Failed to check availability", err)
	}
	return !overlap, nil
}

// BookedDates lists every night held by a blocking booking of the
// property's listing. A property without a listing has none.
func (s *availabilityService) BookedDates(ctx context.Context, propertyID string) ([]model.Date, error) {
	listing, err := s.listings.GetByPropertyID(ctx, propertyID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.cfg.Log.Debug("No rental listing for property, no booked dates", "property_id", propertyID)
			return []model.Date{}, nil
		}
		return nil, err
	}

	bookings, err := s.repo.ListByListing(ctx, listing.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings for booked dates",
			"property_id", propertyID,
			"rental_id", listing.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve booked dates", err)
	}

	seen := make(map[string]struct{})
	dates := []model.Date{}
	for _, booking := range bookings {
		if !booking.Status.IsBlocking() {
			continue
		}
		for _, day := range model.DaysIn(booking.StartDate, booking.EndDate) {
			key := day.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			dates = append(dates, day)
		}
	}
	sortDates(dates)

	return dates, nil
}

func sortDates(dates []model.Date) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}
