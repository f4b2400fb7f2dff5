package model

import "time"

// BookingLock is an advisory lock document. The _id encodes the room, so
// concurrent creates for the same room collide on the unique index. ExpiresAt
// backs a TTL index so a crashed holder cannot wedge a room.
type BookingLock struct {
	ID        string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}
