package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// BlockingStatuses lists the statuses that occupy a listing's nights. Every
// read and write path that decides availability uses this list.
var BlockingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) IsBlocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// ParseBookingStatus is case-insensitive.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return status, nil
}

type Booking struct {
	ID               string        `json:"id,omitempty" bson:"_id,omitempty"`
	RentalPropertyID string        `json:"rentalPropertyId" bson:"rental_id"`
	StartDate        Date          `json:"startDate" bson:"start_date"`
	EndDate          Date          `json:"endDate" bson:"end_date"`
	NumberOfGuests   int           `json:"numberOfGuests" bson:"number_of_guests"`
	TotalPrice       Money         `json:"totalPrice" bson:"total_price_cents"`
	Status           BookingStatus `json:"status" bson:"status"`
	GuestName        string        `json:"guestName" bson:"guest_name"`
	GuestEmail       string        `json:"guestEmail" bson:"guest_email"`
	GuestPhone       string        `json:"guestPhone,omitempty" bson:"guest_phone,omitempty"`
	SpecialRequests  string        `json:"specialRequests,omitempty" bson:"special_requests,omitempty"`
	CreatedAt        time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updated_at"`

	// Display fields filled from the listing; never persisted.
	PricePerNight  *Money `json:"pricePerNight,omitempty" bson:"-"`
	CleaningFee    *Money `json:"cleaningFee,omitempty" bson:"-"`
	NumberOfNights int    `json:"numberOfNights,omitempty" bson:"-"`
	PropertyTitle  string `json:"propertyTitle,omitempty" bson:"-"`
	PropertyCity   string `json:"propertyCity,omitempty" bson:"-"`
}

// Overlaps reports whether the booking's [start, end) intersects [start, end).
// Ranges that only touch do not overlap.
func (b *Booking) Overlaps(start, end Date) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}

func (b *Booking) Nights() int {
	return b.StartDate.DaysUntil(b.EndDate)
}

type BookingRequest struct {
	RentalPropertyID string `json:"rentalPropertyId,omitempty" validate:"omitempty,max=64"`
	PropertyID       string `json:"propertyId,omitempty" validate:"omitempty,max=64"`
	StartDate        Date   `json:"startDate"`
	EndDate          Date   `json:"endDate"`
	NumberOfGuests   int    `json:"numberOfGuests" validate:"required,min=1"`
	GuestName        string `json:"guestName" validate:"required,max=100"`
	GuestEmail       string `json:"guestEmail" validate:"required,email,max=254"`
	GuestPhone       string `json:"guestPhone,omitempty" validate:"omitempty,guest_phone"`
	SpecialRequests  string `json:"specialRequests,omitempty" validate:"max=1000"`
}

// BookingTarget is what a booking request points at: either a listing that
// already exists or a bare property that may need a listing provisioned.
type BookingTarget interface {
	isBookingTarget()
}

type ExistingListing struct {
	ListingID string
}

type BareProperty struct {
	PropertyID string
}

func (ExistingListing) isBookingTarget() {}
func (BareProperty) isBookingTarget()    {}

var (
	ErrNoBookingTarget        = errors.New("Either rentalPropertyId or propertyId must be provided")
	ErrAmbiguousBookingTarget = errors.New("Only one of rentalPropertyId or propertyId may be provided")
)

func (r *BookingRequest) Target() (BookingTarget, error) {
	listingID := strings.TrimSpace(r.RentalPropertyID)
	propertyID := strings.TrimSpace(r.PropertyID)
	switch {
	case listingID != "" && propertyID != "":
		return nil, ErrAmbiguousBookingTarget
	case listingID != "":
		return ExistingListing{ListingID: listingID}, nil
	case propertyID != "":
		return BareProperty{PropertyID: propertyID}, nil
	default:
		return nil, ErrNoBookingTarget
	}
}

type AvailabilityResult struct {
	RentalID  string `json:"rentalId"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
	Available bool   `json:"available"`
}

type BookedDates struct {
	PropertyID  string `json:"propertyId"`
	BookedDates []Date `json:"bookedDates"`
}
