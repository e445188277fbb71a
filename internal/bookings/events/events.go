package events

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/kafka"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

const (
	TypeBookingCreated  = "booking.created"
	TypeBookingCanceled = "booking.canceled"

	SchemaVersion = "1"
	Source        = "roombook"

	HeaderActorID = "actor-id"
)

// BookingEvent is the payload of booking lifecycle events, keyed by room id so that
// events for one room stay ordered on a partition.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId"`
	RoomID     string    `json:"roomId"`
	CustomerID string    `json:"customerId"`
	Date       model.Day `json:"date"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking) error
	BookingCanceled(ctx context.Context, booking *model.Booking, actorID string) error
}

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessagePublisher
	now      func() time.Time
}

func NewKafkaPublisher(producer MessagePublisher) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		now:      time.Now,
	}
}

func (p *KafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) error {
	return p.publish(ctx, TypeBookingCreated, booking, booking.CustomerID)
}

func (p *KafkaPublisher) BookingCanceled(ctx context.Context, booking *model.Booking, actorID string) error {
	return p.publish(ctx, TypeBookingCanceled, booking, actorID)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, booking *model.Booking, actorID string) error {
	event := BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		CustomerID: booking.CustomerID,
		Date:       booking.Date,
		ActorID:    actorID,
		OccurredAt: p.now().UTC(),
	}

	msg, err := kafka.NewMessage().
		WithKey(booking.RoomID).
		WithValue(event).
		WithEventType(eventType).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithHeader(HeaderActorID, actorID).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) BookingCreated(context.Context, *model.Booking) error { return nil }

func (NoopPublisher) BookingCanceled(context.Context, *model.Booking, string) error { return nil }
