package model

// CalendarView is one month of a listing's occupancy. Bookings is keyed by
// the day in YYYY-MM-DD form.
type CalendarView struct {
	RentalPropertyID string                   `json:"rentalPropertyId"`
	Year             int                      `json:"year"`
	Month            int                      `json:"month"`
	BlockedDates     []Date                   `json:"blockedDates"`
	Bookings         map[string]CalendarEntry `json:"bookings"`
}

type CalendarEntry struct {
	BookingID string `json:"bookingId"`
	GuestName string `json:"guestName"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
}
