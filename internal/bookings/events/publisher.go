package events

import (
	"context"
	"time"

	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
	"staybook/pkg/model"
)

const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"

	SchemaVersion = "1"
	source        = "staybook"

	// HeaderBookingStatus carries the status the booking had when published.
	HeaderBookingStatus = "booking-status"

	publishTimeout = 5 * time.Second
)

// BookingEvent is the payload of every booking lifecycle message.
type BookingEvent struct {
	Type             string              `json:"type"`
	BookingID        string              `json:"bookingId"`
	RentalPropertyID string              `json:"rentalPropertyId"`
	Status           model.BookingStatus `json:"status"`
	StartDate        model.Date          `json:"startDate"`
	EndDate          model.Date          `json:"endDate"`
	NumberOfGuests   int                 `json:"numberOfGuests"`
	TotalPrice       model.Money         `json:"totalPrice"`
	GuestEmail       string              `json:"guestEmail"`
	OccurredAt       time.Time           `json:"occurredAt"`
}

// Publisher announces booking lifecycle changes. Implementations never fail
// the caller: delivery problems are logged.
type Publisher interface {
	Publish(ctx context.Context, eventType string, booking *model.Booking)
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer producer
	log      *logger.Logger
}

// NewKafkaPublisher publishes events keyed by listing id so that one
// listing's events stay ordered within a partition.
func NewKafkaPublisher(p producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: p, log: log}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) {
	// Detached from request cancellation, bounded by publishTimeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msg, err := kafka.NewMessage().
		WithKey(booking.RentalPropertyID).
		WithValue(NewBookingEvent(eventType, booking)).
		WithEventID("").
		WithEventType(eventType).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(source).
		WithHeader(HeaderBookingStatus, string(booking.Status)).
		Build()
	if err != nil {
		p.log.Error("Failed to build booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"rental_id", booking.RentalPropertyID,
			"error", err,
		)
	}
}

func NewBookingEvent(eventType string, booking *model.Booking) BookingEvent {
	return BookingEvent{
		Type:             eventType,
		BookingID:        booking.ID,
		RentalPropertyID: booking.RentalPropertyID,
		Status:           booking.Status,
		StartDate:        booking.StartDate,
		EndDate:          booking.EndDate,
		NumberOfGuests:   booking.NumberOfGuests,
		TotalPrice:       booking.TotalPrice,
		GuestEmail:       booking.GuestEmail,
		OccurredAt:       time.Now().UTC(),
	}
}

type noopPublisher struct{}

// NewNoopPublisher is used when Kafka is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, *model.Booking) {}
