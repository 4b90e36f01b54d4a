package validator

import (
	"errors"
	"testing"

	"staybook/pkg/logger"
	"staybook/pkg/model"
)

func validListing() *model.RentalListing {
	return &model.RentalListing{
		PropertyID:   "42",
		NightlyRate:  model.Cents(10000),
		CleaningFee:  model.Cents(2500),
		MaxGuests:    4,
		CheckInTime:  "15:00",
		CheckOutTime: "11:00",
		Active:       true,
	}
}

func TestRentalValidator_Validate(t *testing.T) {
	v := NewRentalValidator(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(l *model.RentalListing)
		wantField string
	}{
		{name: "valid listing", mutate: func(l *model.RentalListing) {}},
		{name: "zero rate", mutate: func(l *model.RentalListing) { l.NightlyRate = 0 }, wantField: "nightlyRate"},
		{name: "negative fee", mutate: func(l *model.RentalListing) { l.CleaningFee = -1 }, wantField: "cleaningFee"},
		{name: "no guests", mutate: func(l *model.RentalListing) { l.MaxGuests = 0 }, wantField: "maxGuests"},
		{name: "missing property", mutate: func(l *model.RentalListing) { l.PropertyID = "" }, wantField: "propertyId"},
		{name: "bad check-in", mutate: func(l *model.RentalListing) { l.CheckInTime = "3pm" }, wantField: "checkInTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validListing()
			tt.mutate(l)
			err := v.Validate(l)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestRentalValidator_ValidateUpdate(t *testing.T) {
	v := NewRentalValidator(logger.Discard())

	zero := model.Money(0)
	if err := v.ValidateUpdate(&model.RentalListingUpdate{NightlyRate: &zero}); err == nil {
		t.Error("expected zero nightly rate update to fail")
	}

	guests := 6
	if err := v.ValidateUpdate(&model.RentalListingUpdate{MaxGuests: &guests}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := v.ValidateUpdate(&model.RentalListingUpdate{}); err != nil {
		t.Errorf("empty update should be valid, got %v", err)
	}
}
