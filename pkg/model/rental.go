package model

import (
	"encoding/json"
	"time"
)

type RentalListing struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	PropertyID   string    `json:"propertyId" bson:"property_id" validate:"required,max=64"`
	NightlyRate  Money     `json:"nightlyRate" bson:"nightly_rate_cents" validate:"gt=0"`
	CleaningFee  Money     `json:"cleaningFee" bson:"cleaning_fee_cents" validate:"gte=0"`
	MaxGuests    int       `json:"maxGuests" bson:"max_guests" validate:"min=1,max=100"`
	Rules        string    `json:"rules,omitempty" bson:"rules,omitempty" validate:"max=2000"`
	CheckInTime  string    `json:"checkInTime" bson:"check_in_time" validate:"required,datetime=15:04"`
	CheckOutTime string    `json:"checkOutTime" bson:"check_out_time" validate:"required,datetime=15:04"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`

	Property *PropertySummary `json:"property,omitempty" bson:"-"`

	// CleaningFeeSet is true when the caller supplied cleaningFee, so an
	// explicit zero is not replaced by the default.
	CleaningFeeSet bool `json:"-" bson:"-"`
}

func (l *RentalListing) UnmarshalJSON(data []byte) error {
	type plain RentalListing
	aux := struct {
		*plain
		CleaningFee *Money `json:"cleaningFee"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.CleaningFee != nil {
		l.CleaningFee = *aux.CleaningFee
		l.CleaningFeeSet = true
	}
	return nil
}

// RentalListingUpdate carries a partial update. Nil fields are left as they are.
type RentalListingUpdate struct {
	NightlyRate  *Money  `json:"nightlyRate,omitempty" validate:"omitempty,gt=0"`
	CleaningFee  *Money  `json:"cleaningFee,omitempty" validate:"omitempty,gte=0"`
	MaxGuests    *int    `json:"maxGuests,omitempty" validate:"omitempty,min=1,max=100"`
	Rules        *string `json:"rules,omitempty" validate:"omitempty,max=2000"`
	CheckInTime  *string `json:"checkInTime,omitempty" validate:"omitempty,datetime=15:04"`
	CheckOutTime *string `json:"checkOutTime,omitempty" validate:"omitempty,datetime=15:04"`
	Active       *bool   `json:"active,omitempty"`
}

func (u *RentalListingUpdate) Apply(l *RentalListing) {
	if u.NightlyRate != nil {
		l.NightlyRate = *u.NightlyRate
	}
	if u.CleaningFee != nil {
		l.CleaningFee = *u.CleaningFee
	}
	if u.MaxGuests != nil {
		l.MaxGuests = *u.MaxGuests
	}
	if u.Rules != nil {
		l.Rules = *u.Rules
	}
	if u.CheckInTime != nil {
		l.CheckInTime = *u.CheckInTime
	}
	if u.CheckOutTime != nil {
		l.CheckOutTime = *u.CheckOutTime
	}
	if u.Active != nil {
		l.Active = *u.Active
	}
}

// ListingDefaults holds the values applied to listings that omit them,
// including auto-provisioned ones.
type ListingDefaults struct {
	CheckInTime   string
	CheckOutTime  string
	CleaningFee   Money
	GuestsPerRoom int
}

type RentalSearchFilter struct {
	MinPrice  *Money
	MaxPrice  *Money
	Guests    int
	StartDate Date
	EndDate   Date
}

func (f RentalSearchFilter) HasDates() bool {
	return !f.StartDate.IsZero() && !f.EndDate.IsZero()
}

type RentalStatistics struct {
	ActiveRentals     int64 `json:"activeRentals"`
	TotalRentals      int64 `json:"totalRentals"`
	PendingBookings   int64 `json:"pendingBookings"`
	ConfirmedBookings int64 `json:"confirmedBookings"`
	CompletedBookings int64 `json:"completedBookings"`
	CancelledBookings int64 `json:"cancelledBookings"`
}
