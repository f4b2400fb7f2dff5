package events

import (
	"time"

	"roombook/pkg/model"
)

const (
	Source = "roombook"

	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent is the JSON payload published for both confirmation and
// cancellation. Times are in the human wire layout so the notifier can
// render them straight into message bodies.
type BookingEvent struct {
	BookingID   string `json:"booking_id"`
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	MemberEmail string `json:"member_email"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	NoOfPersons int    `json:"no_of_persons"`
	OccurredAt  string `json:"occurred_at"`
}

func FromBooking(b *model.Booking) BookingEvent {
	return BookingEvent{
		BookingID:   b.ID,
		RoomID:      b.RoomID,
		RoomName:    b.RoomName,
		MemberEmail: b.MemberEmail,
		StartTime:   b.StartTime.Format(model.TimeLayout),
		EndTime:     b.EndTime.Format(model.TimeLayout),
		NoOfPersons: b.NoOfPersons,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
}
