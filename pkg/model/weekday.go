package model

import (
	"strings"
	"time"
)

// Weekday is a lowercase English weekday name as used by the tutoring API.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

var weekdays = [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

// ParseWeekday accepts any casing and surrounding whitespace.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

func (d Weekday) Valid() bool {
	for _, w := range weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// Title returns the display form, e.g. "Monday".
func (d Weekday) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// SessionDurations is the fixed set of bookable session lengths in minutes.
var SessionDurations = []int{30, 60, 90, 120}

func IsSupportedDuration(minutes int) bool {
	for _, d := range SessionDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

const (
	SessionTypeOnline   = "online"
	SessionTypeInPerson = "in-person"
)

func IsSessionType(s string) bool {
	return s == SessionTypeOnline || s == SessionTypeInPerson
}
