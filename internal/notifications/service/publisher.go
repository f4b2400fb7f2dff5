package service

import (
	"context"
	"time"

	"roombook/internal/notifications/events"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	"roombook/pkg/model"
)

const publishTimeout = 5 * time.Second

// Publisher emits booking events off the request path. Delivery is
// best-effort: failures are logged and never surfaced to the caller.
type Publisher struct {
	producer *kafka.Producer
	cfg      *config.Config
}

func NewPublisher(producer *kafka.Producer, cfg *config.Config) *Publisher {
	return &Publisher{
		producer: producer,
		cfg:      cfg,
	}
}

func (p *Publisher) BookingConfirmed(booking *model.Booking) {
	p.publish(p.cfg.ConfirmationTopic, events.TypeBookingConfirmed, booking)
}

func (p *Publisher) BookingCancelled(booking *model.Booking) {
	p.publish(p.cfg.CancellationTopic, events.TypeBookingCancelled, booking)
}

// publish runs on its own goroutine with its own timeout so a slow broker
// cannot hold up the HTTP response.
func (p *Publisher) publish(topic, eventType string, booking *model.Booking) {
	msg := kafka.NewMessage().
		WithKey(booking.RoomID).
		WithValue(events.FromBooking(booking)).
		WithEventType(eventType).
		WithSource(events.Source).
		Build()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.producer.Publish(ctx, topic, msg); err != nil {
			p.cfg.Log.Error("Failed to publish booking event",
				"topic", topic,
				"event_type", eventType,
				"booking_id", booking.ID,
				"error", err,
			)
		}
	}()
}
