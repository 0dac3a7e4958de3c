package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"helpme/internal/config"
	"helpme/internal/firebase"
	"helpme/internal/models"
)

// Repository encapsulates the logic to access courses, queues, presence and questions from a
// database.
//
// Presence operations are atomic per queue: implementations serialise AddStaff and RemoveStaff on
// the same queue and keep Queue.AllowQuestions equal to "presence set is non-empty" in the same
// write.
type Repository interface {
	// GetUser returns the user with the given ID, or qerrors.UserNotFoundError.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// UpsertUser creates or replaces the user's profile.
	UpsertUser(ctx context.Context, u *models.User) error

	// CreateCourse saves a new course, assigning its ID if empty.
	CreateCourse(ctx context.Context, c *models.Course) error
	// GetCourse returns the course with the given ID, or qerrors.CourseNotFoundError.
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	// SetCourseRole adds a user to a course roster or changes their role.
	SetCourseRole(ctx context.Context, courseID, userID string, role models.Role) error
	// GetCourseRole returns the user's role in the course, or qerrors.UserCourseNotFoundError.
	GetCourseRole(ctx context.Context, courseID, userID string) (models.Role, error)

	// CreateQueue saves a new queue, assigning its ID if empty. It fails with
	// qerrors.QueueAlreadyExistsError if a non-disabled queue already exists for the course and room.
	CreateQueue(ctx context.Context, q *models.Queue) error
	// GetQueue returns the queue with its presence set, or qerrors.QueueNotFoundError.
	GetQueue(ctx context.Context, id string) (*models.Queue, error)
	// FindActiveQueue returns the non-disabled queue at (courseID, room), or qerrors.QueueNotFoundError.
	FindActiveQueue(ctx context.Context, courseID, room string) (*models.Queue, error)
	// ListActiveQueues returns the non-disabled queues of a course. An empty courseID lists every course.
	ListActiveQueues(ctx context.Context, courseID string) ([]*models.Queue, error)
	// UpdateQueueNotes replaces the queue's notes.
	UpdateQueueNotes(ctx context.Context, id, notes string) error
	// DisableQueue marks the queue disabled, empties its presence set and stops it accepting questions.
	DisableQueue(ctx context.Context, id string) error

	// AddStaff puts userID into the queue's presence set and sets AllowQuestions. It fails with
	// qerrors.DuplicatePresenceError if the user is already in this queue, qerrors.AlreadyCheckedInError
	// if the user is present in another queue and qerrors.QueueDisabledError if the queue is disabled.
	AddStaff(ctx context.Context, queueID, userID string, at time.Time) error
	// RemoveStaff takes userID out of the queue's presence set. It reports whether the user was
	// present and how many staff remain; AllowQuestions is cleared when none remain.
	RemoveStaff(ctx context.Context, queueID, userID string) (removed bool, remaining int, err error)
	// GetStaffPresence returns where the user is checked in, or nil if nowhere.
	GetStaffPresence(ctx context.Context, userID string) (*models.StaffPresence, error)

	// CreateQuestion saves a new question, assigning its ID if empty.
	CreateQuestion(ctx context.Context, q *models.Question) error
	// GetQuestion returns the question, or qerrors.QuestionNotFoundError.
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	// ListQuestions returns every question of a queue, oldest first.
	ListQuestions(ctx context.Context, queueID string) ([]*models.Question, error)
	// UpdateQuestion writes the question's status, helper and timestamps.
	UpdateQuestion(ctx context.Context, q *models.Question) error
	// CloseQuestions moves every question of the queue whose status is in from to the status to,
	// stamping ClosedAt, and returns how many were changed.
	CloseQuestions(ctx context.Context, queueID string, from []models.QuestionStatus, to models.QuestionStatus, at time.Time) (int, error)

	// AddEvent appends a staff presence event.
	AddEvent(ctx context.Context, e *models.Event) error
	// ListEvents returns the course's events with start <= time < end, oldest first.
	ListEvents(ctx context.Context, courseID string, start, end time.Time) ([]*models.Event, error)

	// AddCalendarEvent saves an office hour.
	AddCalendarEvent(ctx context.Context, e *models.CalendarEvent) error
	// ListCalendarEvents returns the course's office hours.
	ListCalendarEvents(ctx context.Context, courseID string) ([]*models.CalendarEvent, error)

	// Close releases the underlying connections.
	Close() error
}

// New creates the repository selected by the configuration.
func New(ctx context.Context, cfg *config.ServerConfig) (Repository, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		log.Printf("✅ Using in-memory repository")
		return NewMemoryRepository(), nil
	case config.StoragePostgres:
		if err := MigratePostgres(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		pool, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Printf("✅ Successfully created Postgres repository client")
		return NewPostgresRepository(pool), nil
	case config.StorageFirestore:
		app, err := firebase.App(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			return nil, err
		}
		fr, err := NewFirebaseRepository(ctx, app)
		if err != nil {
			return nil, err
		}
		log.Printf("✅ Successfully created Firebase repository client")
		return fr, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
