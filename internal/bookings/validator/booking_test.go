package validator

import (
	"errors"
	"testing"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/model"
)

func baseBooking() *model.Booking {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	return &model.Booking{
		RoomID:      "64f000000000000000000001",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		NoOfPersons: 3,
		MemberID:    "64f000000000000000000002",
		MemberEmail: "member@example.com",
	}
}

func TestValidate_Valid(t *testing.T) {
	v := NewBookingValidator()
	if err := v.Validate(baseBooking()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_EndNotAfterStart(t *testing.T) {
	v := NewBookingValidator()

	tests := []struct {
		name string
		end  func(start time.Time) time.Time
	}{
		{"end equals start", func(start time.Time) time.Time { return start }},
		{"end before start", func(start time.Time) time.Time { return start.Add(-time.Minute) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := baseBooking()
			b.EndTime = tt.end(b.StartTime)
			err := v.Validate(b)
			if !errors.Is(err, bookingserrors.ErrInvalidTimeRange) {
				t.Errorf("expected ErrInvalidTimeRange, got %v", err)
			}
		})
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	v := NewBookingValidator()

	tests := []struct {
		name   string
		mutate func(b *model.Booking)
	}{
		{"missing room id", func(b *model.Booking) { b.RoomID = "" }},
		{"malformed room id", func(b *model.Booking) { b.RoomID = "not-an-object-id" }},
		{"zero persons", func(b *model.Booking) { b.NoOfPersons = 0 }},
		{"negative persons", func(b *model.Booking) { b.NoOfPersons = -1 }},
		{"missing member id", func(b *model.Booking) { b.MemberID = "" }},
		{"bad member email", func(b *model.Booking) { b.MemberEmail = "not-an-email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := baseBooking()
			tt.mutate(b)
			if err := v.Validate(b); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
