package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helpme/internal/calendar"
	"helpme/internal/models"
	"helpme/internal/notify"
	"helpme/internal/qerrors"
	"helpme/internal/repository"

	"github.com/golang/glog"
)

// Service runs the queue lifecycle: staff check-in and check-out, queue creation, cleanup and
// disabling, and question admission. Every operation takes the acting user explicitly.
type Service struct {
	repo     repository.Repository
	presence *Presence
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(repo repository.Repository, notifier notify.Notifier) *Service {
	return &Service{
		repo:     repo,
		presence: NewPresence(repo),
		notifier: notifier,
		now:      time.Now,
	}
}

// Notifier returns the notifier queue changes are published on.
func (s *Service) Notifier() notify.Notifier {
	return s.notifier
}

// CheckIn puts user into the presence set of the active queue at (courseID, room), creating the
// queue if the room has none.
func (s *Service) CheckIn(ctx context.Context, courseID, room string, user *models.User) (*models.QueueView, error) {
	room, err := models.NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, courseID, user)
	if err != nil {
		return nil, err
	}
	if err := Authorize(role, ActionCheckIn, nil); err != nil {
		return nil, err
	}

	q, err := s.checkIn(ctx, courseID, room, user.ID, role)
	if errors.Is(err, qerrors.QueueAlreadyExistsError) {
		// Another check-in created the room's queue first; join it instead.
		q, err = s.checkIn(ctx, courseID, room, user.ID, role)
	}
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, models.EventTACheckedIn, user.ID, courseID, q.ID)
	s.publish(ctx, q.ID)

	q, err = s.repo.GetQueue(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return s.queueView(ctx, q)
}

func (s *Service) checkIn(ctx context.Context, courseID, room, userID string, role models.Role) (*models.Queue, error) {
	q, err := s.repo.FindActiveQueue(ctx, courseID, room)
	if err != nil && !errors.Is(err, qerrors.QueueNotFoundError) {
		return nil, err
	}

	excluding := ""
	if q != nil {
		excluding = q.ID
	}
	elsewhere, err := s.presence.IsPresentElsewhere(ctx, userID, excluding)
	if err != nil {
		return nil, err
	}
	if elsewhere {
		return nil, qerrors.AlreadyCheckedInError
	}

	if q == nil {
		q = &models.Queue{CourseID: courseID, Room: room, CreatedAt: s.now()}
		if err := s.repo.CreateQueue(ctx, q); err != nil {
			if errors.Is(err, qerrors.QueueAlreadyExistsError) || errors.Is(err, qerrors.CourseNotFoundError) {
				return nil, err
			}
			glog.Errorf("error creating queue for course %s in room %s: %v\n", courseID, room, err)
			return nil, fmt.Errorf("%w: %v", qerrors.QueueCreateFailedError, err)
		}
	}

	if err := Authorize(role, ActionCheckIn, q); err != nil {
		return nil, err
	}
	if err := s.presence.Add(ctx, q.ID, userID); err != nil {
		return nil, err
	}
	return q, nil
}

// CheckOut takes user out of the presence set of the active queue at (courseID, room). Checking
// out when not checked in is a no-op. When the last staff member leaves a queue that still has
// outstanding questions, the response offers to clean it.
func (s *Service) CheckOut(ctx context.Context, courseID, room string, user *models.User) (*models.CheckoutResponse, error) {
	room, err := models.NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, courseID, user)
	if err != nil {
		return nil, err
	}
	if err := Authorize(role, ActionCheckOut, nil); err != nil {
		return nil, err
	}

	q, err := s.repo.FindActiveQueue(ctx, courseID, room)
	if err != nil {
		return nil, err
	}

	res := &models.CheckoutResponse{QueueID: q.ID}
	removed, remaining, err := s.presence.Remove(ctx, q.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return res, nil
	}

	s.recordEvent(ctx, models.EventTACheckedOut, user.ID, courseID, q.ID)
	s.publish(ctx, q.ID)

	if remaining > 0 {
		return res, nil
	}

	outstanding, err := s.outstandingQuestions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if outstanding == 0 {
		return res, nil
	}
	res.CanClearQueue = true

	events, err := s.repo.ListCalendarEvents(ctx, courseID)
	if err != nil {
		glog.Warningf("error listing office hours of course %s: %v\n", courseID, err)
		return res, nil
	}
	res.NextOfficeHourTime = calendar.NextOfficeHour(events, s.now())
	return res, nil
}

// GenerateQueue creates an empty queue at (courseID, room). It fails with
// qerrors.QueueAlreadyExistsError if the room already has an active queue.
func (s *Service) GenerateQueue(ctx context.Context, courseID, room string, user *models.User, req *models.GenerateQueueRequest) (*models.QueueView, error) {
	room, err := models.NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, courseID, user)
	if err != nil {
		return nil, err
	}
	if err := Authorize(role, ActionGenerateQueue, &models.Queue{IsProfessorQueue: req.IsProfessorQueue}); err != nil {
		return nil, err
	}

	q := &models.Queue{
		CourseID:         courseID,
		Room:             room,
		Notes:            req.Notes,
		IsProfessorQueue: req.IsProfessorQueue,
		CreatedAt:        s.now(),
	}
	if err := s.repo.CreateQueue(ctx, q); err != nil {
		if errors.Is(err, qerrors.QueueAlreadyExistsError) || errors.Is(err, qerrors.CourseNotFoundError) {
			return nil, err
		}
		glog.Errorf("error creating queue for course %s in room %s: %v\n", courseID, room, err)
		return nil, fmt.Errorf("%w: %v", qerrors.QueueCreateFailedError, err)
	}
	return s.queueView(ctx, q)
}

// Clean moves every outstanding question of the queue to STALE and returns how many moved.
func (s *Service) Clean(ctx context.Context, queueID string, user *models.User) (int, error) {
	q, err := s.authorizeForQueue(ctx, queueID, user, ActionClean)
	if err != nil {
		return 0, err
	}
	return s.clean(ctx, q)
}

func (s *Service) clean(ctx context.Context, q *models.Queue) (int, error) {
	n, err := s.repo.CloseQuestions(ctx, q.ID, models.NonTerminalStatuses(), models.StatusStale, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, q.ID)
	}
	return n, nil
}

// CleanAllQueues cleans every active queue that nobody is checked into. A failure on one queue
// does not stop the others.
func (s *Service) CleanAllQueues(ctx context.Context) error {
	queues, err := s.repo.ListActiveQueues(ctx, "")
	if err != nil {
		return err
	}

	var errs []error
	for _, q := range queues {
		if len(q.Staff) > 0 {
			continue
		}
		n, err := s.clean(ctx, q)
		if err != nil {
			glog.Errorf("error cleaning queue %s: %v\n", q.ID, err)
			errs = append(errs, fmt.Errorf("queue %s: %w", q.ID, err))
			continue
		}
		if n > 0 {
			glog.Infof("cleaned %d questions from queue %s\n", n, q.ID)
		}
	}
	return errors.Join(errs...)
}

// Disable permanently closes the queue. Staff still checked in are checked out.
func (s *Service) Disable(ctx context.Context, queueID string, user *models.User) error {
	q, err := s.authorizeForQueue(ctx, queueID, user, ActionDisable)
	if err != nil {
		return err
	}
	if q.IsDisabled {
		return nil
	}

	if err := s.repo.DisableQueue(ctx, q.ID); err != nil {
		return err
	}
	for _, sp := range q.Staff {
		s.recordEvent(ctx, models.EventTACheckedOut, sp.UserID, q.CourseID, q.ID)
	}
	s.publish(ctx, q.ID)
	return nil
}

// EditQueue replaces the queue's notes.
func (s *Service) EditQueue(ctx context.Context, user *models.User, req *models.EditQueueRequest) (*models.QueueView, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.authorizeForQueue(ctx, req.QueueID, user, ActionEditQueue)
	if err != nil {
		return nil, err
	}
	if q.IsDisabled {
		return nil, qerrors.QueueDisabledError
	}
	if err := s.repo.UpdateQueueNotes(ctx, q.ID, req.Notes); err != nil {
		return nil, err
	}
	s.publish(ctx, q.ID)

	q.Notes = req.Notes
	return s.queueView(ctx, q)
}

// GetQueueView returns the public view of a queue to a member of its course.
func (s *Service) GetQueueView(ctx context.Context, queueID string, user *models.User) (*models.QueueView, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Role(ctx, q.CourseID, user); err != nil {
		return nil, err
	}
	return s.queueView(ctx, q)
}

// Role returns the user's role in the course. Site administrators who are not on the roster act
// as professors.
func (s *Service) Role(ctx context.Context, courseID string, user *models.User) (models.Role, error) {
	role, err := s.repo.GetCourseRole(ctx, courseID, user.ID)
	if errors.Is(err, qerrors.UserCourseNotFoundError) && user.Profile != nil && user.IsAdmin {
		return models.RoleProfessor, nil
	}
	return role, err
}

func (s *Service) authorizeForQueue(ctx context.Context, queueID string, user *models.User, action Action) (*models.Queue, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, q.CourseID, user)
	if err != nil {
		return nil, err
	}
	if err := Authorize(role, action, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) queueView(ctx context.Context, q *models.Queue) (*models.QueueView, error) {
	questions, err := s.repo.ListQuestions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	size := 0
	for _, question := range questions {
		if question.Status.IsWaiting() {
			size++
		}
	}

	staff := make([]models.StaffMember, 0, len(q.Staff))
	for _, sp := range q.Staff {
		member := models.StaffMember{ID: sp.UserID, CheckedInAt: sp.CheckedInAt}
		u, err := s.repo.GetUser(ctx, sp.UserID)
		if err == nil && u.Profile != nil {
			member.DisplayName = u.DisplayName
			member.PhotoURL = u.PhotoURL
		} else if err != nil && !errors.Is(err, qerrors.UserNotFoundError) {
			return nil, err
		}
		staff = append(staff, member)
	}

	return &models.QueueView{
		ID:               q.ID,
		CourseID:         q.CourseID,
		Room:             q.Room,
		Notes:            q.Notes,
		IsDisabled:       q.IsDisabled,
		AllowQuestions:   q.AllowQuestions,
		IsProfessorQueue: q.IsProfessorQueue,
		IsOpen:           !q.IsDisabled && q.AllowQuestions,
		QueueSize:        size,
		StaffList:        staff,
	}, nil
}

func (s *Service) outstandingQuestions(ctx context.Context, queueID string) (int, error) {
	questions, err := s.repo.ListQuestions(ctx, queueID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, q := range questions {
		if !q.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

// recordEvent appends a presence event. The presence change has already happened, so a failure
// is only logged.
func (s *Service) recordEvent(ctx context.Context, typ models.EventType, userID, courseID, queueID string) {
	err := s.repo.AddEvent(ctx, &models.Event{
		Type:     typ,
		UserID:   userID,
		CourseID: courseID,
		QueueID:  queueID,
		Time:     s.now(),
	})
	if err != nil {
		glog.Errorf("error recording %s event for user %s in queue %s: %v\n", typ, userID, queueID, err)
	}
}

func (s *Service) publish(ctx context.Context, queueID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, queueID); err != nil {
		glog.Warningf("error publishing update for queue %s: %v\n", queueID, err)
	}
}
