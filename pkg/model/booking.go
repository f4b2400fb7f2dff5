package model

import "time"

// TimeLayout is the wire format for booking times, e.g. "2024-03-15 02:30 PM".
const TimeLayout = "2006-01-02 03:04 PM"

type Booking struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomID      string    `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	RoomName    string    `json:"room_name" bson:"room_name"`
	StartTime   time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	NoOfPersons int       `json:"no_of_persons" bson:"no_of_persons" validate:"required,min=1"`
	MemberID    string    `json:"-" bson:"member_id" validate:"required,mongodb"`
	MemberEmail string    `json:"-" bson:"member_email" validate:"required,email"`
	CreatedAt   time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
}

// Overlaps reports whether two half-open intervals [s1,e1) and [s2,e2)
// conflict. Back-to-back bookings do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}
