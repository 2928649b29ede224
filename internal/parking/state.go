package parking

import (
	"fmt"
	"slices"
	"time"
)

// State is the parking slice. Error holds the message of the last refused
// operation and is cleared by the next successful one.
type State struct {
	Spaces []Space `json:"spaces"`
	Error  string  `json:"error,omitempty"`
}

// Stats counts spaces per status.
type Stats struct {
	Total            int `json:"total"`
	Available        int `json:"available"`
	Occupied         int `json:"occupied"`
	Reserved         int `json:"reserved"`
	Maintenance      int `json:"maintenance"`
	ResidentOccupied int `json:"residentOccupied"`
	VisitorOccupied  int `json:"visitorOccupied"`
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.Spaces, func(sp Space) bool { return sp.ID == id })
}

// Space returns the space with the given id.
func (s State) Space(id string) (Space, bool) {
	i := s.index(id)
	if i < 0 {
		return Space{}, false
	}
	return s.Spaces[i], true
}

// Upsert inserts or replaces a space by id. New spaces without a status
// start available.
func (s State) Upsert(space Space) State {
	if space.Status == "" {
		space.Status = StatusAvailable
	}
	next := s
	next.Spaces = slices.Clone(s.Spaces)
	if i := next.index(space.ID); i >= 0 {
		next.Spaces[i] = space
	} else {
		next.Spaces = append(next.Spaces, space)
	}
	return next
}

// Assign runs the assignment guard against the space with the given id.
func (s State) Assign(id string, a Assignment) (State, error) {
	return s.apply(id, func(sp Space) (Space, error) { return Assign(sp, a) })
}

// Release frees the space with the given id.
func (s State) Release(id string) (State, error) {
	return s.apply(id, func(sp Space) (Space, error) { return Release(sp), nil })
}

// SetStatus changes the status of the space with the given id.
func (s State) SetStatus(id string, status Status, reason string, until *time.Time) (State, error) {
	return s.apply(id, func(sp Space) (Space, error) { return SetStatus(sp, status, reason, until) })
}

func (s State) apply(id string, guard func(Space) (Space, error)) (State, error) {
	next := s
	next.Spaces = slices.Clone(s.Spaces)

	i := s.index(id)
	if i < 0 {
		err := fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
		next.Error = err.Error()
		return next, err
	}
	updated, err := guard(s.Spaces[i])
	if err != nil {
		next.Error = err.Error()
		return next, err
	}
	next.Spaces[i] = updated
	next.Error = ""
	return next, nil
}

// Stats counts spaces per status and occupied spaces per type.
func (s State) Stats() Stats {
	stats := Stats{Total: len(s.Spaces)}
	for _, sp := range s.Spaces {
		switch sp.Status {
		case StatusAvailable:
			stats.Available++
		case StatusOccupied:
			stats.Occupied++
			switch sp.Type {
			case TypeVisitor:
				stats.VisitorOccupied++
			default:
				stats.ResidentOccupied++
			}
		case StatusReserved:
			stats.Reserved++
		case StatusMaintenance:
			stats.Maintenance++
		}
	}
	return stats
}
