package models

import "time"

var (
	FirestoreQuestionsCollection = "questions"
)

type QuestionStatus string

// Open statuses.
const (
	StatusDrafting       QuestionStatus = "DRAFTING"
	StatusQueued         QuestionStatus = "QUEUED"
	StatusHelping        QuestionStatus = "HELPING"
	StatusPriorityQueued QuestionStatus = "PRIORITY_QUEUED"
)

// Limbo statuses: the question left the line but the student has not acknowledged it yet.
const (
	StatusCantFind   QuestionStatus = "CANT_FIND"
	StatusReQueueing QuestionStatus = "REQUEUEING"
	StatusTADeleted  QuestionStatus = "TA_DELETED"
)

// Closed statuses.
const (
	StatusResolved         QuestionStatus = "RESOLVED"
	StatusDeletedDraft     QuestionStatus = "DELETED_DRAFT"
	StatusConfirmedDeleted QuestionStatus = "CONFIRMED_DELETED"
	StatusStale            QuestionStatus = "STALE"
)

// OpenStatuses and LimboStatuses together are the non-terminal statuses.
var (
	OpenStatuses  = []QuestionStatus{StatusDrafting, StatusQueued, StatusHelping, StatusPriorityQueued}
	LimboStatuses = []QuestionStatus{StatusCantFind, StatusReQueueing, StatusTADeleted}
)

// NonTerminalStatuses returns every status a queue cleanup moves to StatusStale.
func NonTerminalStatuses() []QuestionStatus {
	out := make([]QuestionStatus, 0, len(OpenStatuses)+len(LimboStatuses))
	out = append(out, OpenStatuses...)
	return append(out, LimboStatuses...)
}

// IsTerminal reports whether s is a closed status.
func (s QuestionStatus) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusDeletedDraft, StatusConfirmedDeleted, StatusStale:
		return true
	}
	return false
}

// IsWaiting reports whether a question with status s counts towards the queue size.
func (s QuestionStatus) IsWaiting() bool {
	return s == StatusQueued || s == StatusPriorityQueued || s == StatusHelping
}

func (s QuestionStatus) Valid() bool {
	for _, v := range NonTerminalStatuses() {
		if v == s {
			return true
		}
	}
	return s.IsTerminal()
}

// Question is a help request submitted to a queue.
type Question struct {
	ID           string         `json:"id" mapstructure:"id"`
	QueueID      string         `json:"queueID" mapstructure:"queueID"`
	CreatorID    string         `json:"creatorID" mapstructure:"creatorID"`
	TAHelpedID   string         `json:"taHelpedID,omitempty" mapstructure:"taHelpedID"`
	Text         string         `json:"text" mapstructure:"text"`
	QuestionType string         `json:"questionType,omitempty" mapstructure:"questionType"`
	Status       QuestionStatus `json:"status" mapstructure:"status"`
	CreatedAt    time.Time      `json:"createdAt" mapstructure:"createdAt"`
	HelpedAt     *time.Time     `json:"helpedAt,omitempty" mapstructure:"helpedAt"`
	ClosedAt     *time.Time     `json:"closedAt,omitempty" mapstructure:"closedAt"`
}

// CreateQuestionRequest is the parameter struct to the CreateQuestion function.
type CreateQuestionRequest struct {
	QueueID      string `json:"-"`
	Text         string `json:"text" validate:"required,max=4000"`
	QuestionType string `json:"questionType" validate:"max=64"`
	// Draft leaves the question in DRAFTING instead of QUEUED.
	Draft bool `json:"draft"`
}

// UpdateQuestionRequest is the parameter struct to the UpdateQuestionStatus function.
type UpdateQuestionRequest struct {
	QuestionID string         `json:"-"`
	Status     QuestionStatus `json:"status" validate:"required"`
}
