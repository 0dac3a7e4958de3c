package models

import "time"

var (
	FirestoreEventsCollection         = "events"
	FirestoreCalendarEventsCollection = "calendar_events"
)

type EventType string

const (
	EventTACheckedIn  EventType = "TA_CHECKED_IN"
	EventTACheckedOut EventType = "TA_CHECKED_OUT"
)

// Event is an append-only record of a staff presence change.
type Event struct {
	ID       string    `json:"id" mapstructure:"id"`
	Type     EventType `json:"eventType" mapstructure:"eventType"`
	UserID   string    `json:"userID" mapstructure:"userID"`
	CourseID string    `json:"courseID" mapstructure:"courseID"`
	QueueID  string    `json:"queueID" mapstructure:"queueID"`
	Time     time.Time `json:"time" mapstructure:"time"`
}

type LocationType string

const (
	LocationInPerson LocationType = "in-person"
	LocationOnline   LocationType = "online"
)

// CalendarEvent is a scheduled office hour. When DaysOfWeek is empty the event happens once, from
// Start to End. Otherwise it repeats on each listed weekday (0 is Sunday) at the time of day of
// Start, until EndDate if set.
type CalendarEvent struct {
	ID             string       `json:"id" mapstructure:"id"`
	CourseID       string       `json:"courseID" mapstructure:"courseID"`
	Title          string       `json:"title" mapstructure:"title"`
	Start          time.Time    `json:"start" mapstructure:"start"`
	End            time.Time    `json:"end" mapstructure:"end"`
	DaysOfWeek     []int        `json:"daysOfWeek,omitempty" mapstructure:"daysOfWeek"`
	EndDate        *time.Time   `json:"endDate,omitempty" mapstructure:"endDate"`
	LocationType   LocationType `json:"locationType" mapstructure:"locationType"`
	LocationDetail string       `json:"locationDetail,omitempty" mapstructure:"locationDetail"`
}

// CreateCalendarEventRequest is the parameter struct to the CreateCalendarEvent function.
type CreateCalendarEventRequest struct {
	CourseID       string       `json:"-"`
	Title          string       `json:"title" validate:"required,max=128"`
	Start          time.Time    `json:"start" validate:"required"`
	End            time.Time    `json:"end" validate:"required,gtfield=Start"`
	DaysOfWeek     []int        `json:"daysOfWeek" validate:"max=7,dive,min=0,max=6"`
	EndDate        *time.Time   `json:"endDate"`
	LocationType   LocationType `json:"locationType" validate:"required,oneof=in-person online"`
	LocationDetail string       `json:"locationDetail" validate:"max=256"`
}

// TACheckinPair is one check-in/check-out interval of a staff member.
type TACheckinPair struct {
	UserID       string     `json:"userID"`
	QueueID      string     `json:"queueID"`
	CheckinTime  time.Time  `json:"checkinTime"`
	CheckoutTime *time.Time `json:"checkoutTime"`
	InProgress   bool       `json:"inProgress"`
}

// TACheckinTimesResponse is the body of the check-in times report.
type TACheckinTimesResponse struct {
	TACheckinTimes []TACheckinPair `json:"taCheckinTimes"`
}
