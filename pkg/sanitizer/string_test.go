package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"simple trim", "  Boardroom  ", "Boardroom"},
		{"collapse runs", "Board   Room", "Board Room"},
		{"tabs and newlines", "Board\t\nRoom", "Board Room"},
		{"control chars dropped", "Board\x00room", "Boardroom"},
		{"already clean", "Board Room", "Board Room"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Member@Example.COM", "member@example.com"},
		{"  member@example.com ", "member@example.com"},
		{"member@example.com", "member@example.com"},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
