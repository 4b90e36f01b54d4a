package sanitizer

import "staybook/pkg/model"

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func SanitizeBookingRequest(req *model.BookingRequest) {
	req.RentalPropertyID = TrimAndNormalize(req.RentalPropertyID)
	req.PropertyID = TrimAndNormalize(req.PropertyID)
	req.GuestName = NormalizeName(req.GuestName)
	req.GuestEmail = NormalizeEmail(req.GuestEmail)
	req.GuestPhone = NormalizePhone(req.GuestPhone)
	req.SpecialRequests = NormalizeFreeText(req.SpecialRequests)
}

func SanitizeListing(listing *model.RentalListing) {
	listing.PropertyID = TrimAndNormalize(listing.PropertyID)
	listing.Rules = NormalizeFreeText(listing.Rules)
	listing.CheckInTime = NormalizeTimeOfDay(listing.CheckInTime)
	listing.CheckOutTime = NormalizeTimeOfDay(listing.CheckOutTime)
}

func SanitizeListingUpdate(update *model.RentalListingUpdate) {
	if update.Rules != nil {
		rules := NormalizeFreeText(*update.Rules)
		update.Rules = &rules
	}
	if update.CheckInTime != nil {
		v := NormalizeTimeOfDay(*update.CheckInTime)
		update.CheckInTime = &v
	}
	if update.CheckOutTime != nil {
		v := NormalizeTimeOfDay(*update.CheckOutTime)
		update.CheckOutTime = &v
	}
}
