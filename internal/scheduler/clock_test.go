package scheduler

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw     string
		want    Clock
		wantErr bool
	}{
		{raw: "09:00", want: 540},
		{raw: "9:05", want: 545},
		{raw: "00:00", want: 0},
		{raw: "24:00", want: EndOfDay},
		{raw: "24:01", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "noon", wantErr: true},
		{raw: "12:5", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseClock(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClock) {
					t.Fatalf("expected ErrInvalidClock, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseClock(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClockText(t *testing.T) {
	c := NewClock(7, 5)
	text, err := c.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "07:05" {
		t.Fatalf("expected 07:05, got %s", text)
	}

	var parsed Clock
	if err := parsed.UnmarshalText([]byte("18:30")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != NewClock(18, 30) {
		t.Fatalf("unexpected clock %v", parsed)
	}
}
