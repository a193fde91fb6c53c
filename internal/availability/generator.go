package availability

import (
	"errors"
	"fmt"
	"time"

	"tutorly/pkg/model"
)

const (
	HorizonDays = 14
	DateLayout  = "2006-01-02"
)

var ErrUnsupportedDuration = errors.New("unsupported session duration")

// BookableSlot is a concrete, dated interval a student can book.
type BookableSlot struct {
	ID        string        `json:"slot_id,omitempty"`
	Date      string        `json:"date"`
	DayName   model.Weekday `json:"day_name"`
	Start     Clock         `json:"start"`
	End       Clock         `json:"end"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
	Duration  int           `json:"duration"`
}

type window struct {
	start Clock
	end   Clock
}

// Generate derives bookable slots for the HorizonDays days starting at the
// calendar day of horizonStart, in horizonStart's location. Each window is
// tiled from its start in steps of duration; a trailing remainder shorter than
// duration yields no slot. Slots keep window input order within a date.
// Windows that cannot be parsed or are empty are skipped.
func Generate(windows []model.AvailabilityWindow, duration int, horizonStart time.Time) ([]BookableSlot, error) {
	if !model.IsSupportedDuration(duration) {
		return nil, fmt.Errorf("%w: %d minutes", ErrUnsupportedDuration, duration)
	}

	byDay := indexWindows(windows)
	if len(byDay) == 0 {
		return []BookableSlot{}, nil
	}

	y, m, d := horizonStart.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, horizonStart.Location())

	slots := []BookableSlot{}
	for i := 0; i < HorizonDays; i++ {
		day := first.AddDate(0, 0, i)
		weekday := model.WeekdayOf(day)
		date := day.Format(DateLayout)

		for _, w := range byDay[weekday] {
			for start := w.start; start.Add(duration) <= w.end; start = start.Add(duration) {
				end := start.Add(duration)
				slots = append(slots, BookableSlot{
					Date:      date,
					DayName:   weekday,
					Start:     start,
					End:       end,
					StartTime: start.Format12(),
					EndTime:   end.Format12(),
					Duration:  duration,
				})
			}
		}
	}
	return slots, nil
}

func indexWindows(windows []model.AvailabilityWindow) map[model.Weekday][]window {
	byDay := make(map[model.Weekday][]window)
	for _, w := range windows {
		day, ok := model.ParseWeekday(string(w.Day))
		if !ok {
			continue
		}
		start, err := ParseClock(w.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(w.EndTime)
		if err != nil || end <= start {
			continue
		}
		byDay[day] = append(byDay[day], window{start: start, end: end})
	}
	return byDay
}
