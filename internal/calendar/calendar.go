package calendar

import (
	"time"

	"helpme/internal/models"
)

// NextOfficeHour returns the earliest start of any of the events strictly after now, or nil when
// none is scheduled. Recurring events repeat at the time of day of their first start, in the
// first start's location.
func NextOfficeHour(events []*models.CalendarEvent, now time.Time) *time.Time {
	var next *time.Time
	for _, e := range events {
		start, ok := nextStart(e, now)
		if !ok {
			continue
		}
		if next == nil || start.Before(*next) {
			s := start
			next = &s
		}
	}
	return next
}

func nextStart(e *models.CalendarEvent, now time.Time) (time.Time, bool) {
	if len(e.DaysOfWeek) == 0 {
		return e.Start, e.Start.After(now)
	}

	days := make(map[time.Weekday]bool, len(e.DaysOfWeek))
	for _, d := range e.DaysOfWeek {
		days[time.Weekday(d)] = true
	}

	loc := e.Start.Location()
	from := now.In(loc)
	if e.Start.After(now) {
		from = e.Start
	}

	// One week past the first candidate day covers every weekday.
	for i := 0; i <= 7; i++ {
		day := from.AddDate(0, 0, i)
		if !days[day.Weekday()] {
			continue
		}
		occurrence := time.Date(day.Year(), day.Month(), day.Day(),
			e.Start.Hour(), e.Start.Minute(), e.Start.Second(), 0, loc)
		if !occurrence.After(now) || occurrence.Before(e.Start) {
			continue
		}
		if e.EndDate != nil && occurrence.After(*e.EndDate) {
			return time.Time{}, false
		}
		return occurrence, true
	}
	return time.Time{}, false
}
