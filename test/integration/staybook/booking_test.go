//go:build integration

package staybook

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingsrepo "staybook/internal/bookings/repository"
	"staybook/pkg/middleware"
	"staybook/pkg/model"
	"staybook/test/integration/testutil"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	agent = testutil.Caller{Email: "agent@staybook.test", Name: "Agent", Role: middleware.RoleAgent}
	guest = testutil.Caller{Email: "guest@staybook.test", Name: "Guest", Role: middleware.RoleClient}
	other = testutil.Caller{Email: "other@staybook.test", Name: "Other", Role: middleware.RoleClient}
)

func TestBookingLifecycle(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	listing := createListing(t, client, "it-1001")
	start := model.Today(time.UTC).AddDays(30)

	var first model.Booking
	t.Run("create prices the stay", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings", bookingBody(listing.ID, start, start.AddDays(3), 2), guest)
		testutil.AssertStatusCode(t, resp, http.StatusCreated)
		resp.DecodeData(t, &first)

		if first.Status != model.BookingPending {
			t.Errorf("status = %s, want PENDING", first.Status)
		}
		if first.TotalPrice != model.Cents(32500) {
			t.Errorf("totalPrice = %s, want 325.00", first.TotalPrice)
		}
		if first.GuestEmail != guest.Email {
			t.Errorf("guestEmail = %s, want caller email", first.GuestEmail)
		}
	})

	t.Run("overlapping stay is rejected", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings", bookingBody(listing.ID, start.AddDays(2), start.AddDays(5), 1), other)
		testutil.AssertStatusCode(t, resp, http.StatusConflict)
	})

	var second model.Booking
	t.Run("back to back stay is accepted", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings", bookingBody(listing.ID, start.AddDays(3), start.AddDays(5), 1), other)
		testutil.AssertStatusCode(t, resp, http.StatusCreated)
		resp.DecodeData(t, &second)
	})

	t.Run("availability reflects pending bookings", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/bookings/check-availability?rentalId=%s&startDate=%s&endDate=%s",
			listing.ID, start.AddDays(1), start.AddDays(2))
		resp := client.GET(t, path, testutil.Caller{})
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var result model.AvailabilityResult
		resp.DecodeData(t, &result)
		if result.Available {
			t.Error("expected the range to be unavailable")
		}

		resp = client.GET(t, "/api/v1/bookings/booked-dates/"+listing.PropertyID, testutil.Caller{})
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var booked model.BookedDates
		resp.DecodeData(t, &booked)
		if len(booked.BookedDates) != 5 {
			t.Errorf("booked dates = %v, want 5 nights", booked.BookedDates)
		}
	})

	t.Run("clients cannot confirm", func(t *testing.T) {
		resp := client.PUT(t, "/api/v1/bookings/id/"+second.ID+"/confirm", nil, other)
		testutil.AssertStatusCode(t, resp, http.StatusForbidden)
	})

	t.Run("agent confirms once", func(t *testing.T) {
		resp := client.PUT(t, "/api/v1/bookings/id/"+second.ID+"/confirm", nil, agent)
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var confirmed model.Booking
		resp.DecodeData(t, &confirmed)
		if confirmed.Status != model.BookingConfirmed {
			t.Fatalf("status = %s, want CONFIRMED", confirmed.Status)
		}

		resp = client.PUT(t, "/api/v1/bookings/id/"+second.ID+"/confirm", nil, agent)
		testutil.AssertStatusCode(t, resp, http.StatusConflict)
	})

	t.Run("guest cancels own booking and frees the dates", func(t *testing.T) {
		resp := client.PUT(t, "/api/v1/bookings/id/"+first.ID+"/cancel", nil, other)
		testutil.AssertStatusCode(t, resp, http.StatusForbidden)

		resp = client.PUT(t, "/api/v1/bookings/id/"+first.ID+"/cancel", nil, guest)
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		resp = client.POST(t, "/api/v1/bookings", bookingBody(listing.ID, start, start.AddDays(2), 1), other)
		testutil.AssertStatusCode(t, resp, http.StatusCreated)
	})

	if n := mongo.CountDocuments(t, bookingsrepo.LockCollectionName, bson.M{}); n != 0 {
		t.Errorf("%d listing locks left behind", n)
	}
}

func TestConcurrentBookingCreation(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	listing := createListing(t, client, "it-2002")
	start := model.Today(time.UTC).AddDays(60)

	const attempts = 8
	var wg sync.WaitGroup
	codes := make(chan int, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caller := testutil.Caller{
				Email: fmt.Sprintf("racer%d@staybook.test", i),
				Name:  "Racer",
				Role:  middleware.RoleClient,
			}
			resp := client.POST(t, "/api/v1/bookings", bookingBody(listing.ID, start, start.AddDays(2), 1), caller)
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Errorf("created %d bookings for the same nights, want 1", created)
	}

	stored := mongo.CountDocuments(t, bookingsrepo.CollectionName, bson.M{"rental_id": listing.ID})
	if stored != 1 {
		t.Errorf("stored %d bookings, want 1", stored)
	}
}

func createListing(t *testing.T, client *testutil.Client, propertyID string) model.RentalListing {
	t.Helper()

	resp := client.POST(t, "/api/v1/rentals", map[string]any{
		"propertyId":   propertyID,
		"nightlyRate":  100,
		"cleaningFee":  25,
		"maxGuests":    4,
		"checkInTime":  "15:00",
		"checkOutTime": "11:00",
	}, agent)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var listing model.RentalListing
	resp.DecodeData(t, &listing)
	return listing
}

func bookingBody(listingID string, start, end model.Date, guests int) map[string]any {
	return map[string]any{
		"rentalPropertyId": listingID,
		"startDate":        start.String(),
		"endDate":          end.String(),
		"numberOfGuests":   guests,
		"guestName":        "Integration Guest",
	}
}
