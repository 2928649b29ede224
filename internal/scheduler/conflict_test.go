package scheduler

import "testing"

func slot(id, facility, date, start, end string) Slot {
	s, err := ParseClock(start)
	if err != nil {
		panic(err)
	}
	e, err := ParseClock(end)
	if err != nil {
		panic(err)
	}
	return Slot{BookingID: id, FacilityID: facility, Date: date, Start: s, End: e}
}

func TestOverlaps(t *testing.T) {
	base := slot("a", "gym", "2026-02-10", "09:00", "10:00")

	tests := []struct {
		name  string
		other Slot
		want  bool
	}{
		{"identical window", slot("b", "gym", "2026-02-10", "09:00", "10:00"), true},
		{"partial overlap", slot("b", "gym", "2026-02-10", "09:30", "10:30"), true},
		{"contained", slot("b", "gym", "2026-02-10", "09:15", "09:45"), true},
		{"back to back after", slot("b", "gym", "2026-02-10", "10:00", "11:00"), false},
		{"back to back before", slot("b", "gym", "2026-02-10", "08:00", "09:00"), false},
		{"other facility", slot("b", "pool", "2026-02-10", "09:00", "10:00"), false},
		{"other date", slot("b", "gym", "2026-02-11", "09:00", "10:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(base, tt.other); got != tt.want {
				t.Fatalf("Overlaps(base, other) = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.other, base); got != tt.want {
				t.Fatalf("Overlaps(other, base) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectConflicts(t *testing.T) {
	existing := []Slot{
		slot("a", "gym", "2026-02-10", "09:00", "10:00"),
		slot("b", "gym", "2026-02-10", "10:00", "11:00"),
		slot("c", "pool", "2026-02-10", "09:00", "12:00"),
	}

	t.Run("overlap produces conflict", func(t *testing.T) {
		conflicts := DetectConflicts(existing, slot("new", "gym", "2026-02-10", "09:30", "10:30"))
		if len(conflicts) != 2 {
			t.Fatalf("expected 2 conflicts, got %d", len(conflicts))
		}
		if conflicts[0].WithBookingID != "a" || conflicts[1].WithBookingID != "b" {
			t.Fatalf("unexpected conflicts: %+v", conflicts)
		}
		if conflicts[0].Type != ConflictTypeFacility {
			t.Fatalf("expected facility conflict type, got %q", conflicts[0].Type)
		}
	})

	t.Run("own booking is ignored", func(t *testing.T) {
		conflicts := DetectConflicts(existing, slot("a", "gym", "2026-02-10", "09:00", "09:30"))
		if len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("non-overlapping slots yield no conflicts", func(t *testing.T) {
		conflicts := DetectConflicts(existing, slot("new", "gym", "2026-02-10", "11:00", "12:00"))
		if len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})
}
