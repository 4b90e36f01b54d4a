package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/internal/pricing"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

// ListingResolver is the rental registry as seen by the booking engine.
type ListingResolver interface {
	GetByID(ctx context.Context, id string) (*model.RentalListing, error)
	GetByPropertyID(ctx context.Context, propertyID string) (*model.RentalListing, error)
	ResolveOrAutoProvision(ctx context.Context, propertyID string) (*model.RentalListing, error)
}

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByListing(ctx context.Context, listingID string) ([]*model.Booking, error)
	ListByGuestEmail(ctx context.Context, email string) ([]*model.Booking, error)
	ListByStatus(ctx context.Context, status string) ([]*model.Booking, error)
	ListUpcoming(ctx context.Context) ([]*model.Booking, error)
	ListActive(ctx context.Context) ([]*model.Booking, error)
	Confirm(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	Complete(ctx context.Context, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	listings  ListingResolver
	locker    ListingLocker
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	listings ListingResolver,
	locker ListingLocker,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		listings:  listings,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	sanitizer.SanitizeBookingRequest(req)

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"rental_id", req.RentalPropertyID,
			"property_id", req.PropertyID,
			"error", err,
		)
		return nil, validationError("Booking validation failed", err)
	}

	target, err := req.Target()
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	listing, err := s.resolveListing(ctx, target)
	if err != nil {
		return nil, err
	}

	if !listing.Active {
		return nil, apperrors.Conflict("This property is not available for rental")
	}

	if err := s.validateStay(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if req.NumberOfGuests > listing.MaxGuests {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"Number of guests (%d) exceeds maximum capacity (%d)",
			req.NumberOfGuests, listing.MaxGuests,
		))
	}

	quote := pricing.QuoteFor(listing, req.StartDate, req.EndDate)
	booking := &model.Booking{
		RentalPropertyID: listing.ID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		NumberOfGuests:   req.NumberOfGuests,
		TotalPrice:       quote.Total,
		Status:           model.BookingPending,
		GuestName:        req.GuestName,
		GuestEmail:       req.GuestEmail,
		GuestPhone:       req.GuestPhone,
		SpecialRequests:  req.SpecialRequests,
	}

	err = s.locker.WithListingLock(ctx, listing.ID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repo.GuardListing(txCtx, listing.ID); err != nil {
				return apperrors.Internal("Failed to check availability", err)
			}

			overlap, err := s.repo.HasOverlap(txCtx, listing.ID, booking.StartDate, booking.EndDate, "")
			if err != nil {
				return apperrors.Internal("Failed to check availability", err)
			}
			if overlap {
				return apperrors.Conflict("Property is not available for the selected dates")
			}

			if err := s.repo.Create(txCtx, booking); err != nil {
				return apperrors.Internal("Failed to create booking", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, s.writeError(err, "Failed to create booking", listing.ID)
	}

	s.cfg.Log.Info("Booking created",
		"booking_id", booking.ID,
		"rental_id", booking.RentalPropertyID,
		"start_date", booking.StartDate.String(),
		"end_date", booking.EndDate.String(),
		"total_price", booking.TotalPrice.String(),
	)

	s.publisher.Publish(ctx, events.BookingCreated, booking)
	enrichFromListing(booking, listing)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, booking)
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.enrichAll(ctx, bookings)
	return bookings, count, nil
}

func (s *bookingService) ListByListing(ctx context.Context, listingID string) ([]*model.Booking, error) {
	listingID = sanitizer.TrimAndNormalize(listingID)
	if listingID == "" {
		return nil, apperrors.InvalidInput("Rental listing ID cannot be empty")
	}
	return s.list(ctx, "Failed to retrieve bookings for rental listing", func() ([]*model.Booking, error) {
		return s.repo.ListByListing(ctx, listingID)
	})
}

func (s *bookingService) ListByGuestEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Guest email cannot be empty")
	}
	return s.list(ctx, "Failed to retrieve bookings for guest", func() ([]*model.Booking, error) {
		return s.repo.ListByGuestEmail(ctx, email)
	})
}

func (s *bookingService) ListByStatus(ctx context.Context, status string) ([]*model.Booking, error) {
	parsed, err := model.ParseBookingStatus(status)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"Invalid booking status: %s. Must be one of PENDING, CONFIRMED, CANCELLED, COMPLETED", status,
		))
	}
	return s.list(ctx, "Failed to retrieve bookings by status", func() ([]*model.Booking, error) {
		return s.repo.ListByStatus(ctx, parsed)
	})
}

func (s *bookingService) ListUpcoming(ctx context.Context) ([]*model.Booking, error) {
	today := s.cfg.Today()
	return s.list(ctx, "Failed to retrieve upcoming bookings", func() ([]*model.Booking, error) {
		return s.repo.ListUpcoming(ctx, today)
	})
}

func (s *bookingService) ListActive(ctx context.Context) ([]*model.Booking, error) {
	today := s.cfg.Today()
	return s.list(ctx, "Failed to retrieve active bookings", func() ([]*model.Booking, error) {
		return s.repo.ListActive(ctx, today)
	})
}

// Confirm re-checks the stay under the listing lock before moving the
// booking to CONFIRMED.
func (s *bookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transitionError(booking.Status, model.BookingConfirmed); err != nil {
		return nil, err
	}

	var confirmed *model.Booking
	err = s.locker.WithListingLock(ctx, booking.RentalPropertyID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repo.GuardListing(txCtx, booking.RentalPropertyID); err != nil {
				return apperrors.Internal("Failed to check availability", err)
			}

			overlap, err := s.repo.HasOverlap(txCtx, booking.RentalPropertyID, booking.StartDate, booking.EndDate, booking.ID)
			if err != nil {
				return apperrors.Internal("Failed to check availability", err)
			}
			if overlap {
				return apperrors.Conflict("Property is no longer available for the selected dates")
			}

			confirmed, err = s.transition(txCtx, booking.ID, model.BookingConfirmed)
			return err
		})
	})
	if err != nil {
		return nil, s.writeError(err, "Failed to confirm booking", booking.RentalPropertyID)
	}

	s.cfg.Log.Info("Booking confirmed", "booking_id", confirmed.ID, "rental_id", confirmed.RentalPropertyID)
	s.publisher.Publish(ctx, events.BookingConfirmed, confirmed)
	s.enrich(ctx, confirmed)
	return confirmed, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return s.simpleTransition(ctx, id, model.BookingCancelled, events.BookingCancelled, "Booking cancelled")
}

func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	return s.simpleTransition(ctx, id, model.BookingCompleted, events.BookingCompleted, "Booking completed")
}

// simpleTransition covers the transitions that cannot create an overlap and
// so need no lock.
func (s *bookingService) simpleTransition(ctx context.Context, id string, to model.BookingStatus, event, logMessage string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transitionError(booking.Status, to); err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, booking.ID, to)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info(logMessage, "booking_id", updated.ID, "rental_id", updated.RentalPropertyID)
	s.publisher.Publish(ctx, event, updated)
	s.enrich(ctx, updated)
	return updated, nil
}

// transition applies the status change as a conditional update. A booking
// that moved on concurrently is reported against its fresh status.
func (s *bookingService) transition(ctx context.Context, id string, to model.BookingStatus) (*model.Booking, error) {
	updated, err := s.repo.UpdateStatus(ctx, id, allowedFrom(to), to)
	if err == nil {
		return updated, nil
	}

	if errors.Is(err, bookingserrors.ErrStatusChanged) {
		current, findErr := s.repo.FindByID(ctx, id)
		if findErr == nil {
			if stateErr := transitionError(current.Status, to); stateErr != nil {
				return nil, stateErr
			}
		}
		return nil, apperrors.InvalidState("Booking status changed concurrently, please retry")
	}

	return nil, s.mapRepoError(err, "Failed to update booking status", id)
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	id = sanitizer.TrimAndNormalize(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, "Failed to retrieve booking", id)
	}
	return booking, nil
}

func (s *bookingService) resolveListing(ctx context.Context, target model.BookingTarget) (*model.RentalListing, error) {
	switch t := target.(type) {
	case model.ExistingListing:
		return s.listings.GetByID(ctx, t.ListingID)
	case model.BareProperty:
		s.cfg.Log.Debug("Resolving rental listing for property", "property_id", t.PropertyID)
		return s.listings.ResolveOrAutoProvision(ctx, t.PropertyID)
	default:
		return nil, apperrors.InvalidInput(model.ErrNoBookingTarget.Error())
	}
}

func (s *bookingService) validateStay(start, end model.Date) error {
	if start.Before(s.cfg.Today()) {
		return apperrors.InvalidInput("Start date cannot be in the past")
	}
	if !end.After(start) {
		return apperrors.InvalidInput("End date must be after start date")
	}
	if start.DaysUntil(end) > s.cfg.MaxStayDays {
		return apperrors.InvalidInput(fmt.Sprintf("Booking period cannot exceed %d days", s.cfg.MaxStayDays))
	}
	return nil
}

func (s *bookingService) list(ctx context.Context, message string, find func() ([]*model.Booking, error)) ([]*model.Booking, error) {
	bookings, err := find()
	if err != nil {
		s.cfg.Log.Error(message, "error", err)
		return nil, apperrors.Internal(message, err)
	}
	s.enrichAll(ctx, bookings)
	return bookings, nil
}

// enrich attaches the listing's rate and property details for display. A
// listing that cannot be loaded leaves those fields empty.
func (s *bookingService) enrich(ctx context.Context, booking *model.Booking) {
	s.enrichAll(ctx, []*model.Booking{booking})
}

func (s *bookingService) enrichAll(ctx context.Context, bookings []*model.Booking) {
	listings := make(map[string]*model.RentalListing)
	for _, booking := range bookings {
		listing, seen := listings[booking.RentalPropertyID]
		if !seen {
			var err error
			listing, err = s.listings.GetByID(ctx, booking.RentalPropertyID)
			if err != nil {
				s.cfg.Log.Warn("Failed to load rental listing for booking",
					"booking_id", booking.ID,
					"rental_id", booking.RentalPropertyID,
					"error", err,
				)
			}
			listings[booking.RentalPropertyID] = listing
		}

		if listing == nil {
			booking.NumberOfNights = booking.Nights()
			continue
		}
		enrichFromListing(booking, listing)
	}
}

func enrichFromListing(booking *model.Booking, listing *model.RentalListing) {
	quote := pricing.QuoteFor(listing, booking.StartDate, booking.EndDate)
	booking.PricePerNight = &quote.NightlyRate
	booking.CleaningFee = &quote.CleaningFee
	booking.NumberOfNights = quote.Nights
	if listing.Property != nil {
		booking.PropertyTitle = listing.Property.Title
		booking.PropertyCity = listing.Property.City
	}
}

// writeError keeps AppErrors raised inside the lock or transaction and
// wraps anything else.
func (s *bookingService) writeError(err error, message, listingID string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error(message, "rental_id", listingID, "error", err)
	return apperrors.Internal(message, err)
}

func (s *bookingService) mapRepoError(err error, message, id string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
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
