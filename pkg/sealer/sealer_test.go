package sealer

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func testKey(t *testing.T) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(make([]byte, 32))
}

func TestSealOpen_RoundTrip(t *testing.T) {
	s, err := New(testKey(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := s.Seal("64f000000000000000000002", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	memberID, err := s.Open(raw)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if memberID != "64f000000000000000000002" {
		t.Errorf("wrong member id: %q", memberID)
	}
}

func TestOpen_Expired(t *testing.T) {
	s, _ := New(testKey(t))

	raw, err := s.Seal("64f000000000000000000002", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	if _, err := s.Open(raw); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestOpen_Garbage(t *testing.T) {
	s, _ := New(testKey(t))

	tests := []string{"", "!!!", "AAAA", base64.RawURLEncoding.EncodeToString(make([]byte, 64))}
	for _, raw := range tests {
		if _, err := s.Open(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Open(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	s, _ := New(testKey(t))

	raw, err := s.Seal("64f000000000000000000002", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	data, _ := base64.RawURLEncoding.DecodeString(raw)
	data[len(data)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(data)

	if _, err := s.Open(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNew_BadKey(t *testing.T) {
	tests := []string{"", "not base64!!!", base64.StdEncoding.EncodeToString(make([]byte, 7))}
	for _, key := range tests {
		if _, err := New(key); !errors.Is(err, ErrBadKey) {
			t.Errorf("New(%q): expected ErrBadKey, got %v", key, err)
		}
	}
}

func TestSeal_TokensDiffer(t *testing.T) {
	s, _ := New(testKey(t))

	a, _ := s.Seal("64f000000000000000000002", time.Now().Add(time.Hour))
	b, _ := s.Seal("64f000000000000000000002", time.Now().Add(time.Hour))
	if a == b {
		t.Error("sealing twice should produce distinct tokens")
	}
}
