package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidClock reports a time of day that is not HH:MM within 00:00-24:00.
var ErrInvalidClock = errors.New("invalid time of day")

// Clock is a time of day in minutes since midnight. 24:00 is allowed so that a
// slot can end at the end of the day.
type Clock int

// EndOfDay is 24:00.
const EndOfDay Clock = 24 * 60

// NewClock builds a Clock from hours and minutes.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM". Single-digit hours are accepted.
func ParseClock(raw string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	c := NewClock(hour, minute)
	if hour < 0 || minute < 0 || minute > 59 || c > EndOfDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return c, nil
}

// String formats c as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether c lies within 00:00-24:00.
func (c Clock) Valid() bool {
	return c >= 0 && c <= EndOfDay
}

func (c Clock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidClock, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
