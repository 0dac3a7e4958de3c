package calendar

import (
	"testing"
	"time"

	"helpme/internal/models"
)

// Monday 8 January 2024.
var monday = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

func TestNextOfficeHourNone(t *testing.T) {
	if next := NextOfficeHour(nil, at(0, 12)); next != nil {
		t.Errorf("Expected no office hour, got %v", next)
	}

	past := []*models.CalendarEvent{{Start: at(0, 9), End: at(0, 10)}}
	if next := NextOfficeHour(past, at(0, 12)); next != nil {
		t.Errorf("Expected past one-off event to be ignored, got %v", next)
	}
}

func TestNextOfficeHourOneOff(t *testing.T) {
	events := []*models.CalendarEvent{
		{Start: at(3, 14), End: at(3, 15)},
		{Start: at(1, 10), End: at(1, 11)},
	}

	next := NextOfficeHour(events, at(0, 12))
	if next == nil || !next.Equal(at(1, 10)) {
		t.Errorf("Expected %v, got %v", at(1, 10), next)
	}
}

func TestNextOfficeHourRecurring(t *testing.T) {
	// Mondays and Wednesdays at 9:00, first held on Monday 8 January.
	weekly := &models.CalendarEvent{
		Start:      at(0, 9),
		End:        at(0, 10),
		DaysOfWeek: []int{int(time.Monday), int(time.Wednesday)},
	}

	tests := []struct {
		now      time.Time
		expected time.Time
	}{
		{now: at(0, 8), expected: at(0, 9)},
		{now: at(0, 9), expected: at(2, 9)},
		{now: at(2, 12), expected: at(7, 9)},
		{now: at(-3, 12), expected: at(0, 9)},
	}

	for _, tt := range tests {
		next := NextOfficeHour([]*models.CalendarEvent{weekly}, tt.now)
		if next == nil || !next.Equal(tt.expected) {
			t.Errorf("At %v: expected %v, got %v", tt.now, tt.expected, next)
		}
	}
}

func TestNextOfficeHourRecurringEnded(t *testing.T) {
	endDate := at(3, 0)
	weekly := &models.CalendarEvent{
		Start:      at(0, 9),
		End:        at(0, 10),
		DaysOfWeek: []int{int(time.Monday)},
		EndDate:    &endDate,
	}

	if next := NextOfficeHour([]*models.CalendarEvent{weekly}, at(0, 12)); next != nil {
		t.Errorf("Expected no occurrence after the end date, got %v", next)
	}
}
