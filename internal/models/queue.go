package models

import "time"

var (
	FirestoreQueuesCollection        = "queues"
	FirestoreStaffPresenceCollection = "staff_presence"
	FirestoreQueueRoomsCollection    = "queue_rooms"
)

// Queue is one help queue tied to a course and room. A queue is never deleted; disabling it is
// terminal.
type Queue struct {
	ID               string    `json:"id" mapstructure:"id"`
	CourseID         string    `json:"courseID" mapstructure:"courseID"`
	Room             string    `json:"room" mapstructure:"room"`
	Notes            string    `json:"notes" mapstructure:"notes"`
	IsDisabled       bool      `json:"isDisabled" mapstructure:"isDisabled"`
	AllowQuestions   bool      `json:"allowQuestions" mapstructure:"allowQuestions"`
	IsProfessorQueue bool      `json:"isProfessorQueue" mapstructure:"isProfessorQueue"`
	CreatedAt        time.Time `json:"createdAt" mapstructure:"createdAt"`
	// Staff is the presence set, ordered by check-in time.
	Staff []StaffPresence `json:"staff" mapstructure:"-"`
}

// HasStaff reports whether userID is in the queue's presence set.
func (q *Queue) HasStaff(userID string) bool {
	for _, s := range q.Staff {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// StaffPresence records that a staff member is checked into a queue.
type StaffPresence struct {
	QueueID     string    `json:"queueID" mapstructure:"queueID"`
	UserID      string    `json:"userID" mapstructure:"userID"`
	CheckedInAt time.Time `json:"checkedInAt" mapstructure:"checkedInAt"`
}

// StaffMember is a StaffPresence enriched with profile data for display.
type StaffMember struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	CheckedInAt time.Time `json:"checkedInAt"`
}

// QueueView is the public view of a queue.
type QueueView struct {
	ID               string        `json:"id"`
	CourseID         string        `json:"courseID"`
	Room             string        `json:"room"`
	Notes            string        `json:"notes"`
	IsDisabled       bool          `json:"isDisabled"`
	AllowQuestions   bool          `json:"allowQuestions"`
	IsProfessorQueue bool          `json:"isProfessorQueue"`
	IsOpen           bool          `json:"isOpen"`
	QueueSize        int           `json:"queueSize"`
	StaffList        []StaffMember `json:"staffList"`
}

// CheckoutResponse is returned when a staff member checks out of a queue.
type CheckoutResponse struct {
	QueueID string `json:"queueId"`
	// CanClearQueue is set when the caller was the last staff member to leave and questions
	// remain in the queue.
	CanClearQueue bool `json:"canClearQueue"`
	// NextOfficeHourTime is when the course's next office hour starts, if one is scheduled.
	NextOfficeHourTime *time.Time `json:"nextOfficeHourTime"`
}

// GenerateQueueRequest is the parameter struct to the GenerateQueue function.
type GenerateQueueRequest struct {
	Notes            string `json:"notes" validate:"max=2000"`
	IsProfessorQueue bool   `json:"isProfessorQueue"`
}

// EditQueueRequest is the parameter struct to the EditQueue function.
type EditQueueRequest struct {
	QueueID string `json:"-"`
	Notes   string `json:"notes" validate:"max=2000"`
}
