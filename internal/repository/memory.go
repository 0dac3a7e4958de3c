package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"helpme/internal/models"
	"helpme/internal/qerrors"

	"github.com/google/uuid"
)

type roomKey struct {
	courseID string
	room     string
}

// MemoryRepository keeps everything in process memory. It backs tests and single-instance
// development servers; all state is lost on restart.
type MemoryRepository struct {
	mu sync.Mutex

	users     map[string]*models.User
	courses   map[string]*models.Course
	queues    map[string]*models.Queue
	rooms     map[roomKey]string
	presence  map[string]*models.StaffPresence
	questions map[string]*models.Question
	events    []*models.Event
	calendar  []*models.CalendarEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:     make(map[string]*models.User),
		courses:   make(map[string]*models.Course),
		queues:    make(map[string]*models.Queue),
		rooms:     make(map[roomKey]string),
		presence:  make(map[string]*models.StaffPresence),
		questions: make(map[string]*models.Question),
	}
}

func (mr *MemoryRepository) Close() error { return nil }

// Users and courses

func (mr *MemoryRepository) GetUser(_ context.Context, id string) (*models.User, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	u, ok := mr.users[id]
	if !ok {
		return nil, qerrors.UserNotFoundError
	}
	profile := *u.Profile
	return &models.User{ID: u.ID, Profile: &profile}, nil
}

func (mr *MemoryRepository) UpsertUser(_ context.Context, u *models.User) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	profile := models.Profile{}
	if u.Profile != nil {
		profile = *u.Profile
	}
	mr.users[u.ID] = &models.User{ID: u.ID, Profile: &profile}
	return nil
}

func (mr *MemoryRepository) CreateCourse(_ context.Context, c *models.Course) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stored := *c
	stored.Roles = make(map[string]models.Role, len(c.Roles))
	for k, v := range c.Roles {
		stored.Roles[k] = v
	}
	mr.courses[c.ID] = &stored
	return nil
}

func (mr *MemoryRepository) GetCourse(_ context.Context, id string) (*models.Course, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	c, ok := mr.courses[id]
	if !ok {
		return nil, qerrors.CourseNotFoundError
	}
	out := *c
	out.Roles = make(map[string]models.Role, len(c.Roles))
	for k, v := range c.Roles {
		out.Roles[k] = v
	}
	return &out, nil
}

func (mr *MemoryRepository) SetCourseRole(_ context.Context, courseID, userID string, role models.Role) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	c, ok := mr.courses[courseID]
	if !ok {
		return qerrors.CourseNotFoundError
	}
	c.Roles[userID] = role
	return nil
}

func (mr *MemoryRepository) GetCourseRole(_ context.Context, courseID, userID string) (models.Role, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	c, ok := mr.courses[courseID]
	if !ok {
		return "", qerrors.CourseNotFoundError
	}
	role, ok := c.Roles[userID]
	if !ok {
		return "", qerrors.UserCourseNotFoundError
	}
	return role, nil
}

// Queues

func (mr *MemoryRepository) CreateQueue(_ context.Context, q *models.Queue) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, ok := mr.courses[q.CourseID]; !ok {
		return qerrors.CourseNotFoundError
	}
	key := roomKey{q.CourseID, q.Room}
	if _, taken := mr.rooms[key]; taken {
		return qerrors.QueueAlreadyExistsError
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	stored := *q
	stored.Staff = nil
	mr.queues[q.ID] = &stored
	mr.rooms[key] = q.ID
	return nil
}

func (mr *MemoryRepository) GetQueue(_ context.Context, id string) (*models.Queue, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	q, ok := mr.queues[id]
	if !ok {
		return nil, qerrors.QueueNotFoundError
	}
	return mr.snapshotQueue(q), nil
}

func (mr *MemoryRepository) FindActiveQueue(_ context.Context, courseID, room string) (*models.Queue, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	id, ok := mr.rooms[roomKey{courseID, room}]
	if !ok {
		return nil, qerrors.QueueNotFoundError
	}
	return mr.snapshotQueue(mr.queues[id]), nil
}

func (mr *MemoryRepository) ListActiveQueues(_ context.Context, courseID string) ([]*models.Queue, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	var out []*models.Queue
	for _, q := range mr.queues {
		if q.IsDisabled || (courseID != "" && q.CourseID != courseID) {
			continue
		}
		out = append(out, mr.snapshotQueue(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (mr *MemoryRepository) UpdateQueueNotes(_ context.Context, id, notes string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	q, ok := mr.queues[id]
	if !ok {
		return qerrors.QueueNotFoundError
	}
	q.Notes = notes
	return nil
}

func (mr *MemoryRepository) DisableQueue(_ context.Context, id string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	q, ok := mr.queues[id]
	if !ok {
		return qerrors.QueueNotFoundError
	}
	if q.IsDisabled {
		return nil
	}
	q.IsDisabled = true
	q.AllowQuestions = false
	delete(mr.rooms, roomKey{q.CourseID, q.Room})
	for userID, p := range mr.presence {
		if p.QueueID == id {
			delete(mr.presence, userID)
		}
	}
	return nil
}

// Presence

func (mr *MemoryRepository) AddStaff(_ context.Context, queueID, userID string, at time.Time) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	q, ok := mr.queues[queueID]
	if !ok {
		return qerrors.QueueNotFoundError
	}
	if q.IsDisabled {
		return qerrors.QueueDisabledError
	}
	if p, ok := mr.presence[userID]; ok {
		if p.QueueID == queueID {
			return qerrors.DuplicatePresenceError
		}
		return qerrors.AlreadyCheckedInError
	}
	mr.presence[userID] = &models.StaffPresence{QueueID: queueID, UserID: userID, CheckedInAt: at}
	q.AllowQuestions = true
	return nil
}

func (mr *MemoryRepository) RemoveStaff(_ context.Context, queueID, userID string) (bool, int, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	q, ok := mr.queues[queueID]
	if !ok {
		return false, 0, qerrors.QueueNotFoundError
	}
	removed := false
	if p, ok := mr.presence[userID]; ok && p.QueueID == queueID {
		delete(mr.presence, userID)
		removed = true
	}
	remaining := mr.staffCount(queueID)
	if remaining == 0 {
		q.AllowQuestions = false
	}
	return removed, remaining, nil
}

func (mr *MemoryRepository) GetStaffPresence(_ context.Context, userID string) (*models.StaffPresence, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	p, ok := mr.presence[userID]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

// Questions

func (mr *MemoryRepository) CreateQuestion(_ context.Context, q *models.Question) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, ok := mr.queues[q.QueueID]; !ok {
		return qerrors.QueueNotFoundError
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	stored := *q
	mr.questions[q.ID] = &stored
	return nil
}

func (mr *MemoryRepository) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	q, ok := mr.questions[id]
	if !ok {
		return nil, qerrors.QuestionNotFoundError
	}
	out := *q
	return &out, nil
}

func (mr *MemoryRepository) ListQuestions(_ context.Context, queueID string) ([]*models.Question, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	var out []*models.Question
	for _, q := range mr.questions {
		if q.QueueID == queueID {
			c := *q
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (mr *MemoryRepository) UpdateQuestion(_ context.Context, q *models.Question) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, ok := mr.questions[q.ID]; !ok {
		return qerrors.QuestionNotFoundError
	}
	stored := *q
	mr.questions[q.ID] = &stored
	return nil
}

func (mr *MemoryRepository) CloseQuestions(_ context.Context, queueID string, from []models.QuestionStatus, to models.QuestionStatus, at time.Time) (int, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	n := 0
	for _, q := range mr.questions {
		if q.QueueID != queueID || !containsStatus(from, q.Status) {
			continue
		}
		closedAt := at
		q.Status = to
		q.ClosedAt = &closedAt
		n++
	}
	return n, nil
}

// Events

func (mr *MemoryRepository) AddEvent(_ context.Context, e *models.Event) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	stored := *e
	mr.events = append(mr.events, &stored)
	return nil
}

func (mr *MemoryRepository) ListEvents(_ context.Context, courseID string, start, end time.Time) ([]*models.Event, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	var out []*models.Event
	for _, e := range mr.events {
		if e.CourseID != courseID || e.Time.Before(start) || !e.Time.Before(end) {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (mr *MemoryRepository) AddCalendarEvent(_ context.Context, e *models.CalendarEvent) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, ok := mr.courses[e.CourseID]; !ok {
		return qerrors.CourseNotFoundError
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	stored := *e
	mr.calendar = append(mr.calendar, &stored)
	return nil
}

func (mr *MemoryRepository) ListCalendarEvents(_ context.Context, courseID string) ([]*models.CalendarEvent, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	var out []*models.CalendarEvent
	for _, e := range mr.calendar {
		if e.CourseID == courseID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// Helpers

// snapshotQueue copies q and attaches its presence set. Callers must hold mr.mu.
func (mr *MemoryRepository) snapshotQueue(q *models.Queue) *models.Queue {
	out := *q
	out.Staff = nil
	for _, p := range mr.presence {
		if p.QueueID == q.ID {
			out.Staff = append(out.Staff, *p)
		}
	}
	sort.Slice(out.Staff, func(i, j int) bool { return out.Staff[i].CheckedInAt.Before(out.Staff[j].CheckedInAt) })
	return &out
}

// staffCount counts the presence entries of a queue. Callers must hold mr.mu.
func (mr *MemoryRepository) staffCount(queueID string) int {
	n := 0
	for _, p := range mr.presence {
		if p.QueueID == queueID {
			n++
		}
	}
	return n
}

func containsStatus(statuses []models.QuestionStatus, s models.QuestionStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
