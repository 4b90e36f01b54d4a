package service

import (
	"context"
	"testing"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
)

func TestMonthView(t *testing.T) {
	listing := testListing()
	env := newTestEnv(listing)
	svc := NewCalendarService(env.repo, env.listings, env.cfg)

	stay := seedBooking(env, listing.ID, model.BookingConfirmed, model.MustParseDate("2030-08-10"), model.MustParseDate("2030-08-13"))
	seedBooking(env, listing.ID, model.BookingPending, model.MustParseDate("2030-07-30"), model.MustParseDate("2030-08-02"))
	seedBooking(env, listing.ID, model.BookingPending, model.MustParseDate("2030-08-31"), model.MustParseDate("2030-09-03"))
	seedBooking(env, listing.ID, model.BookingCancelled, model.MustParseDate("2030-08-20"), model.MustParseDate("2030-08-22"))

	view, err := svc.MonthView(context.Background(), listing.ID, 2030, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2030-08-01", "2030-08-10", "2030-08-11", "2030-08-12", "2030-08-31"}
	if len(view.BlockedDates) != len(want) {
		t.Fatalf("blocked dates = %v, want %v", view.BlockedDates, want)
	}
	for i, d := range view.BlockedDates {
		if d.String() != want[i] {
			t.Errorf("blockedDates[%d] = %s, want %s", i, d, want[i])
		}
	}

	entry, ok := view.Bookings["2030-08-11"]
	if !ok {
		t.Fatal("expected an entry for 2030-08-11")
	}
	if entry.BookingID != stay.ID || entry.GuestName != "Ana Silva" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.StartDate.String() != "2030-08-10" || entry.EndDate.String() != "2030-08-13" {
		t.Errorf("entry should carry the full stay, got %s to %s", entry.StartDate, entry.EndDate)
	}
	if _, ok := view.Bookings["2030-08-13"]; ok {
		t.Error("checkout day must not be blocked")
	}
}

func TestMonthView_Errors(t *testing.T) {
	listing := testListing()
	env := newTestEnv(listing)
	svc := NewCalendarService(env.repo, env.listings, env.cfg)

	tests := []struct {
		name        string
		listingID   string
		year, month int
		code        string
	}{
		{"month zero", listing.ID, 2030, 0, apperrors.CodeInvalidInput},
		{"month thirteen", listing.ID, 2030, 13, apperrors.CodeInvalidInput},
		{"year zero", listing.ID, 0, 5, apperrors.CodeInvalidInput},
		{"unknown listing", "64b7f0c2a1b2c3d4e5f6ffff", 2030, 5, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.MonthView(context.Background(), tt.listingID, tt.year, tt.month)
			assertCode(t, err, tt.code)
		})
	}
}

func TestMonthView_EmptyMonth(t *testing.T) {
	listing := testListing()
	env := newTestEnv(listing)
	svc := NewCalendarService(env.repo, env.listings, env.cfg)

	view, err := svc.MonthView(context.Background(), listing.ID, 2031, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.BlockedDates == nil || len(view.BlockedDates) != 0 {
		t.Errorf("expected empty blocked dates, got %v", view.BlockedDates)
	}
	if view.RentalPropertyID != listing.ID || view.Year != 2031 || view.Month != 2 {
		t.Errorf("unexpected header %+v", view)
	}
}
