package service

import (
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
)

//	create → PENDING --confirm--> CONFIRMED --complete--> COMPLETED
//	            |                     |
//	            +--cancel--> CANCELLED <--cancel--+
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingConfirmed: {model.BookingPending},
	model.BookingCancelled: {model.BookingPending, model.BookingConfirmed},
	model.BookingCompleted: {model.BookingConfirmed},
}

func allowedFrom(to model.BookingStatus) []model.BookingStatus {
	return transitions[to]
}

// transitionError returns nil when a booking in status from may move to to,
// otherwise the InvalidState error explaining why not.
func transitionError(from, to model.BookingStatus) error {
	for _, allowed := range allowedFrom(to) {
		if from == allowed {
			return nil
		}
	}

	switch to {
	case model.BookingConfirmed:
		return apperrors.InvalidState("Only pending bookings can be confirmed")
	case model.BookingCompleted:
		return apperrors.InvalidState("Only confirmed bookings can be completed")
	case model.BookingCancelled:
		if from == model.BookingCancelled {
			return apperrors.InvalidState("Booking is already cancelled")
		}
		return apperrors.InvalidState("Completed bookings cannot be cancelled")
	}
	return apperrors.InvalidState("Booking cannot move from " + string(from) + " to " + string(to))
}
