package model

import "time"

type Room struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomName  string    `json:"room_name" bson:"room_name" validate:"required,min=2,max=100"`
	Capacity  int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=500"`
	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
}

// RoomUpdate carries the staff-editable fields. Nil pointers are left as-is.
type RoomUpdate struct {
	RoomName *string `json:"room_name,omitempty" validate:"omitempty,min=2,max=100"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=500"`
	IsActive *bool   `json:"is_active,omitempty"`
}
