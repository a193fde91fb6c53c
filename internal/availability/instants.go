package availability

import (
	"fmt"
	"time"
)

// ToInstants converts a picked date and 12-hour start time into absolute
// start and end instants in loc. End is exactly duration minutes after start.
func ToInstants(date, time12 string, duration int, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date %q: %v", ErrInvalidClock, date, err)
	}
	clock, err := Parse12(time12)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if duration <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d minutes", ErrUnsupportedDuration, duration)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	end := start.Add(time.Duration(duration) * time.Minute)
	return start, end, nil
}
