package model

import "time"

// Member is the account identity attached to authenticated requests. Account
// provisioning lives outside this service; we only read and authenticate.
type Member struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	IsActive     bool      `json:"is_active" bson:"is_active"`
	IsStaff      bool      `json:"is_staff" bson:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser" bson:"is_superuser"`
	CreatedAt    time.Time `json:"created_at,omitempty" bson:"created_at"`
}
