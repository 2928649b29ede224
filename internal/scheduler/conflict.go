package scheduler

// Slot is a facility reservation window on one calendar day. Start is
// inclusive and End exclusive.
type Slot struct {
	BookingID  string
	FacilityID string
	Date       string
	Start      Clock
	End        Clock
}

// ConflictType describes the kind of clash detected between slots.
type ConflictType string

const (
	// ConflictTypeFacility indicates the facility is double-booked.
	ConflictTypeFacility ConflictType = "facility"
)

// Conflict names an existing slot that clashes with a candidate.
type Conflict struct {
	WithBookingID string
	Type          ConflictType
	FacilityID    string
	Date          string
	Start         Clock
	End           Clock
}

// Overlaps reports whether a and b share the same facility and date and their
// half-open windows intersect. Back-to-back slots do not overlap.
func Overlaps(a, b Slot) bool {
	if a.FacilityID != b.FacilityID || a.Date != b.Date {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

// DetectConflicts identifies the existing slots that clash with candidate.
// A slot carrying the candidate's own booking id is skipped.
func DetectConflicts(existing []Slot, candidate Slot) []Conflict {
	var conflicts []Conflict
	for _, slot := range existing {
		if candidate.BookingID != "" && slot.BookingID == candidate.BookingID {
			continue
		}
		if !Overlaps(slot, candidate) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithBookingID: slot.BookingID,
			Type:          ConflictTypeFacility,
			FacilityID:    slot.FacilityID,
			Date:          slot.Date,
			Start:         slot.Start,
			End:           slot.End,
		})
	}
	return conflicts
}
