package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

const minutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("invalid time of day")

// ParseClock parses a 24-hour "HH:MM" value. A trailing ":SS" is accepted and ignored.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w %q: want HH:MM", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 2 || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidClock, s)
	}
	return Clock(h*60 + m), nil
}

// Parse12 parses a 12-hour display time such as "7:00 AM" or "12:30pm".
// 12:xx AM is just after midnight and 12:xx PM is just after noon.
func Parse12(s string) (Clock, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	var meridiem string
	switch {
	case strings.HasSuffix(v, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(v, "PM"):
		meridiem = "PM"
	default:
		return 0, fmt.Errorf("%w %q: missing AM/PM", ErrInvalidClock, s)
	}
	v = strings.TrimSpace(strings.TrimSuffix(v, meridiem))

	hs, ms, ok := strings.Cut(v, ":")
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 1 || h > 12 {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || len(ms) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidClock, s)
	}

	if h == 12 {
		h = 0
	}
	if meridiem == "PM" {
		h += 12
	}
	return Clock(h*60 + m), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// String renders the 24-hour form, e.g. "07:00".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Format12 renders the display form used by the booking UI, e.g. "7:00 AM".
func (c Clock) Format12() string {
	h := c.Hour() % 24
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute(), meridiem)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
