package sanitizer

import (
	"testing"

	"staybook/pkg/model"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "basic trim", input: "  hello  ", want: "hello"},
		{name: "multiple spaces", input: "Jane    Doe", want: "Jane Doe"},
		{name: "tabs and newlines", input: "Jane\t\nDoe", want: "Jane Doe"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \t\n ", want: ""},
		{name: "accents kept", input: " Zoé  Lefèvre ", want: "Zoé Lefèvre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeFreeText(t *testing.T) {
	got := NormalizeFreeText("  Late arrival\nafter 22:00\x00\x07  ")
	if got != "Late arrival\nafter 22:00" {
		t.Errorf("NormalizeFreeText() = %q", got)
	}
}

func TestSanitizeBookingRequest(t *testing.T) {
	req := &model.BookingRequest{
		RentalPropertyID: "  abc ",
		GuestName:        "  Jane   Doe ",
		GuestEmail:       " Jane.Doe@Example.COM ",
		GuestPhone:       "+33 6 12 34 56 78",
		SpecialRequests:  "  crib please ",
	}

	SanitizeBookingRequest(req)

	if req.RentalPropertyID != "abc" {
		t.Errorf("RentalPropertyID = %q", req.RentalPropertyID)
	}
	if req.GuestName != "Jane Doe" {
		t.Errorf("GuestName = %q", req.GuestName)
	}
	if req.GuestEmail != "jane.doe@example.com" {
		t.Errorf("GuestEmail = %q", req.GuestEmail)
	}
	if req.GuestPhone != "+33612345678" {
		t.Errorf("GuestPhone = %q", req.GuestPhone)
	}
	if req.SpecialRequests != "crib please" {
		t.Errorf("SpecialRequests = %q", req.SpecialRequests)
	}
}

func TestSanitizeListingUpdate(t *testing.T) {
	rules := "  No parties \x00"
	checkIn := " 16:00 "
	update := &model.RentalListingUpdate{Rules: &rules, CheckInTime: &checkIn}

	SanitizeListingUpdate(update)

	if *update.Rules != "No parties" {
		t.Errorf("Rules = %q", *update.Rules)
	}
	if *update.CheckInTime != "16:00" {
		t.Errorf("CheckInTime = %q", *update.CheckInTime)
	}
	if update.CheckOutTime != nil {
		t.Error("untouched fields must stay nil")
	}
}
