// Package pricing computes stay lengths and totals. All amounts are exact
// cents; nothing here touches storage or the clock.
package pricing

import "staybook/pkg/model"

// Nights is the number of nights between check-in and check-out. It is
// negative when end precedes start; callers validate ordering first.
func Nights(start, end model.Date) int {
	return start.DaysUntil(end)
}

// Price is nightlyRate × nights + cleaningFee.
func Price(nightlyRate, cleaningFee model.Money, start, end model.Date) model.Money {
	return nightlyRate.Times(Nights(start, end)).Add(cleaningFee)
}

// Quote bundles the figures shown next to a booking.
type Quote struct {
	NightlyRate model.Money
	CleaningFee model.Money
	Nights      int
	Total       model.Money
}

// QuoteFor prices a stay at the listing's current rate and fee.
func QuoteFor(listing *model.RentalListing, start, end model.Date) Quote {
	nights := Nights(start, end)
	return Quote{
		NightlyRate: listing.NightlyRate,
		CleaningFee: listing.CleaningFee,
		Nights:      nights,
		Total:       Price(listing.NightlyRate, listing.CleaningFee, start, end),
	}
}
