package service

import (
	"context"
	"time"

	"staybook/internal/bookings/repository"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
)

type CalendarService interface {
	MonthView(ctx context.Context, listingID string, year, month int) (*model.CalendarView, error)
}

type calendarService struct {
	repo     repository.BookingRepository
	listings ListingResolver
	cfg      *config.Config
}

func NewCalendarService(repo repository.BookingRepository, listings ListingResolver, cfg *config.Config) CalendarService {
	return &calendarService{
		repo:     repo,
		listings: listings,
		cfg:      cfg,
	}
}

// MonthView returns the blocked days of one month for a listing, each with
// the booking that holds it. Stays crossing the month edges are clipped.
func (s *calendarService) MonthView(ctx context.Context, listingID string, year, month int) (*model.CalendarView, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.InvalidInput("Month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, apperrors.InvalidInput("Year must be between 1 and 9999")
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	from := model.NewDate(year, time.Month(month), 1)
	to := model.NewDate(year, time.Month(month)+1, 1)

	bookings, err := s.repo.FindBlocking(ctx, listing.ID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for calendar",
			"rental_id", listing.ID,
			"year", year,
			"month", month,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve calendar", err)
	}

	view := &model.CalendarView{
		RentalPropertyID: listing.ID,
		Year:             year,
		Month:            month,
		BlockedDates:     []model.Date{},
		Bookings:         make(map[string]model.CalendarEntry),
	}

	for _, booking := range bookings {
		start, end := booking.StartDate, booking.EndDate
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}

		for _, day := range model.DaysIn(start, end) {
			key := day.String()
			if _, taken := view.Bookings[key]; taken {
				continue
			}
			view.BlockedDates = append(view.BlockedDates, day)
			view.Bookings[key] = model.CalendarEntry{
				BookingID: booking.ID,
				GuestName: booking.GuestName,
				StartDate: booking.StartDate,
				EndDate:   booking.EndDate,
			}
		}
	}
	sortDates(view.BlockedDates)

	return view, nil
}
