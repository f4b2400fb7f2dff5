package kafka

import (
	"testing"
)

func TestMessageBuilder(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	msg := NewMessage().
		WithKey("64f000000000000000000001").
		WithValue(payload{Name: "Boardroom"}).
		WithEventType("booking.confirmed").
		WithSource("roombook").
		Build()

	if msg.Key != "64f000000000000000000001" {
		t.Errorf("wrong key: %q", msg.Key)
	}
	if msg.GetEventType() != "booking.confirmed" {
		t.Errorf("wrong event type: %q", msg.GetEventType())
	}
	if msg.GetEventID() == "" {
		t.Error("event id should be generated")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("timestamp header should be set")
	}

	var got payload
	if err := msg.DecodeValue(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Boardroom" {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestMessage_RetryCount(t *testing.T) {
	msg := NewMessage().WithValue(map[string]string{"k": "v"}).Build()

	if msg.GetRetryCount() != 0 {
		t.Errorf("fresh message should have zero retries, got %d", msg.GetRetryCount())
	}

	msg.IncrementRetryCount()
	msg.IncrementRetryCount()
	if msg.GetRetryCount() != 2 {
		t.Errorf("expected 2 retries, got %d", msg.GetRetryCount())
	}
}

func TestMessageBuilder_EventIDStable(t *testing.T) {
	mb := NewMessage().WithValue(map[string]string{"k": "v"}).WithHeader(HeaderEventID, "fixed")
	msg := mb.Build()
	if msg.GetEventID() != "fixed" {
		t.Errorf("explicit event id should be kept, got %q", msg.GetEventID())
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
	if IsTransient(ErrEmptyTopic) {
		t.Error("message-shape errors are permanent")
	}
}
