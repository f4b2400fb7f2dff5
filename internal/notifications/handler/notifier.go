package handler

import (
	"context"
	"fmt"

	"roombook/internal/notifications/events"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
)

// Mailer delivers a rendered notification. The default implementation just
// logs; a real SMTP mailer can be dropped in without touching the handlers.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type LogMailer struct {
	Log *logger.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Log.Info("Mail sent", "to", to, "subject", subject, "body", body)
	return nil
}

// NotificationHandler turns booking events into member-facing mail.
type NotificationHandler struct {
	mailer Mailer
	log    *logger.Logger
}

func NewNotificationHandler(mailer Mailer, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		mailer: mailer,
		log:    log,
	}
}

func (h *NotificationHandler) HandleConfirmation(ctx context.Context, msg kafka.Message) error {
	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("decoding confirmation event: %w", err)
	}

	subject := "Meeting Room Booking Confirmation"
	body := fmt.Sprintf(
		"You have successfully booked meeting room %s. Your booking details:\nDate & Time: %s  -  %s.",
		event.RoomName, event.StartTime, event.EndTime,
	)

	if err := h.mailer.Send(ctx, event.MemberEmail, subject, body); err != nil {
		return fmt.Errorf("sending confirmation mail: %w", err)
	}

	h.log.Info("Confirmation processed",
		"booking_id", event.BookingID,
		"event_id", msg.GetEventID(),
	)
	return nil
}

func (h *NotificationHandler) HandleCancellation(ctx context.Context, msg kafka.Message) error {
	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("decoding cancellation event: %w", err)
	}

	subject := "Meeting Room Booking Cancellation"
	body := fmt.Sprintf(
		"Your booking for meeting room %s from %s to %s has been canceled.",
		event.RoomName, event.StartTime, event.EndTime,
	)

	if err := h.mailer.Send(ctx, event.MemberEmail, subject, body); err != nil {
		return fmt.Errorf("sending cancellation mail: %w", err)
	}

	h.log.Info("Cancellation processed",
		"booking_id", event.BookingID,
		"event_id", msg.GetEventID(),
	)
	return nil
}
