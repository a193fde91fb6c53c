package availability

import (
	"strings"
	"time"

	"tutorly/pkg/model"
)

// SubtractClasses drops slots that overlap an active class meeting on the
// same weekday. Intervals are half-open, so a class ending at 09:00 does not
// block a slot starting at 09:00.
func SubtractClasses(slots []BookableSlot, classes []model.ClassRecord) []BookableSlot {
	busy := make(map[model.Weekday][]window)
	for _, c := range classes {
		if !c.IsActive() {
			continue
		}
		day, ok := model.ParseWeekday(string(c.Day))
		if !ok {
			continue
		}
		start, err := ParseClock(c.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(c.EndTime)
		if err != nil || end <= start {
			continue
		}
		busy[day] = append(busy[day], window{start: start, end: end})
	}
	if len(busy) == 0 {
		return slots
	}

	free := make([]BookableSlot, 0, len(slots))
	for _, s := range slots {
		if !overlapsAny(s, busy[s.DayName]) {
			free = append(free, s)
		}
	}
	return free
}

func overlapsAny(s BookableSlot, blocks []window) bool {
	for _, b := range blocks {
		if s.Start < b.end && b.start < s.End {
			return true
		}
	}
	return false
}

// DateSummary is one entry of the date picker.
type DateSummary struct {
	Date      string        `json:"date"`
	DayName   model.Weekday `json:"day_name"`
	Label     string        `json:"label"`
	SlotCount int           `json:"slot_count"`
}

// SummarizeDates lists each distinct date once, in first-seen order, with its slot count.
func SummarizeDates(slots []BookableSlot) []DateSummary {
	summaries := []DateSummary{}
	index := make(map[string]int)
	for _, s := range slots {
		if i, ok := index[s.Date]; ok {
			summaries[i].SlotCount++
			continue
		}
		index[s.Date] = len(summaries)
		summaries = append(summaries, DateSummary{
			Date:      s.Date,
			DayName:   s.DayName,
			Label:     dateLabel(s.Date),
			SlotCount: 1,
		})
	}
	return summaries
}

func dateLabel(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Mon, Jan 2")
}

// SlotsOn returns the slots for one date, keeping their order.
func SlotsOn(slots []BookableSlot, date string) []BookableSlot {
	out := []BookableSlot{}
	for _, s := range slots {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

// HasDate reports whether any slot falls on date.
func HasDate(slots []BookableSlot, date string) bool {
	for _, s := range slots {
		if s.Date == date {
			return true
		}
	}
	return false
}

// FindSlot locates the slot on date whose display start time matches ref.
// ref may be a display time in any case ("7:00 am"), a 24-hour time, or a slot id.
func FindSlot(slots []BookableSlot, date, ref string) (BookableSlot, bool) {
	ref = strings.TrimSpace(ref)
	start, parsed := parseAnyClock(ref)
	for _, s := range slots {
		if s.Date != date {
			continue
		}
		if (s.ID != "" && s.ID == ref) || (parsed && s.Start == start) {
			return s, true
		}
	}
	return BookableSlot{}, false
}

func parseAnyClock(s string) (Clock, bool) {
	if c, err := Parse12(s); err == nil {
		return c, true
	}
	if c, err := ParseClock(s); err == nil {
		return c, true
	}
	return 0, false
}
