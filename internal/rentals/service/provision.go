package service

import (
	"context"
	"errors"
	"fmt"

	rentalserrors "staybook/internal/rentals/errors"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

const daysPerMonth = 30

// ResolveOrAutoProvision returns the listing for propertyID, creating one
// from the property record when none exists yet. Concurrent callers for the
// same property all end up with the single listing the unique index lets
// through.
func (s *rentalService) ResolveOrAutoProvision(ctx context.Context, propertyID string) (*model.RentalListing, error) {
	propertyID = sanitizer.TrimAndNormalize(propertyID)
	if propertyID == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	existing, err := s.repo.FindByPropertyID(ctx, propertyID)
	if err == nil {
		s.enrich(ctx, existing)
		return existing, nil
	}
	if !errors.Is(err, rentalserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to look up rental listing", "property_id", propertyID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve rental listing", err)
	}

	property, err := s.properties.GetProperty(ctx, propertyID)
	if err != nil {
		s.cfg.Log.Warn("Could not fetch property for auto-provisioning",
			"property_id", propertyID,
			"error", err,
		)
		return nil, asUpstreamError(err)
	}

	listing, err := s.listingFromProperty(propertyID, property)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		if errors.Is(err, rentalserrors.ErrDuplicateProperty) {
			winner, findErr := s.repo.FindByPropertyID(ctx, propertyID)
			if findErr != nil {
				return nil, apperrors.Internal("Failed to retrieve rental listing", findErr)
			}
			s.cfg.Log.Debug("Rental listing provisioned concurrently, using existing one",
				"property_id", propertyID,
				"rental_id", winner.ID,
			)
			winner.Property = property.Summary()
			return winner, nil
		}
		s.cfg.Log.Error("Failed to auto-provision rental listing",
			"property_id", propertyID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create rental listing", err)
	}

	listing.Property = property.Summary()
	s.cfg.Log.Info("Rental listing auto-provisioned",
		"id", listing.ID,
		"property_id", propertyID,
		"nightly_rate", listing.NightlyRate.String(),
		"max_guests", listing.MaxGuests,
	)
	return listing, nil
}

func (s *rentalService) listingFromProperty(propertyID string, property *model.Property) (*model.RentalListing, error) {
	if !property.IsRental() {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"Property is not available for rental (transactionType: %s)", property.TransactionType,
		))
	}

	rate, ok := nightlyRateOf(property)
	if !ok {
		return nil, apperrors.InvalidInput("Property price or monthly rent is required")
	}

	return &model.RentalListing{
		PropertyID:   propertyID,
		NightlyRate:  rate,
		CleaningFee:  s.defaults.CleaningFee,
		MaxGuests:    s.maxGuestsFor(property),
		CheckInTime:  s.defaults.CheckInTime,
		CheckOutTime: s.defaults.CheckOutTime,
		Active:       true,
	}, nil
}

// nightlyRateOf derives a nightly rate from the monthly rent, falling back to
// the listed price. A rate that rounds to zero is not usable.
func nightlyRateOf(property *model.Property) (model.Money, bool) {
	for _, amount := range []*model.Money{property.MonthlyRent, property.Price} {
		if amount == nil || !amount.IsPositive() {
			continue
		}
		rate := amount.DivideHalfUp(daysPerMonth)
		if rate.IsPositive() {
			return rate, true
		}
	}
	return 0, false
}

func (s *rentalService) maxGuestsFor(property *model.Property) int {
	rooms := 1
	if property.Rooms != nil && *property.Rooms > 0 {
		rooms = *property.Rooms
	}
	perRoom := max(s.defaults.GuestsPerRoom, 1)
	return rooms * perRoom
}
