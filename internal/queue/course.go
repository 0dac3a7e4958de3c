package queue

import (
	"context"
	"time"

	"helpme/internal/analytics"
	"helpme/internal/models"
	"helpme/internal/qerrors"
)

// CreateCourse creates a course with its creator as professor. Only site administrators may
// create courses.
func (s *Service) CreateCourse(ctx context.Context, user *models.User, req *models.CreateCourseRequest) (*models.Course, error) {
	if user.Profile == nil || !user.IsAdmin {
		return nil, qerrors.NotAuthorizedError
	}
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	c := &models.Course{
		Title:   req.Title,
		Code:    req.Code,
		Term:    req.Term,
		Created: s.now(),
		Roles:   map[string]models.Role{user.ID: models.RoleProfessor},
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCourseView returns the course and the queues the user may see: staff see every active
// queue, students only those currently open.
func (s *Service) GetCourseView(ctx context.Context, courseID string, user *models.User) (*models.CourseView, error) {
	c, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, courseID, user)
	if err != nil {
		return nil, err
	}

	queues, err := s.repo.ListActiveQueues(ctx, courseID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.QueueView, 0, len(queues))
	for _, q := range queues {
		if !role.IsStaff() && !canAdmit(q) {
			continue
		}
		view, err := s.queueView(ctx, q)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return &models.CourseView{Course: c, Role: role, Queues: views}, nil
}

// SetCourseRole adds a user to the course roster or changes their role.
func (s *Service) SetCourseRole(ctx context.Context, user *models.User, req *models.SetCourseRoleRequest) error {
	if err := models.Validate(req); err != nil {
		return err
	}
	role, err := s.Role(ctx, req.CourseID, user)
	if err != nil {
		return err
	}
	if err := Authorize(role, ActionManageRoster, nil); err != nil {
		return err
	}
	if _, err := s.repo.GetUser(ctx, req.UserID); err != nil {
		return err
	}
	return s.repo.SetCourseRole(ctx, req.CourseID, req.UserID, req.Role)
}

// CreateCalendarEvent schedules an office hour for the course.
func (s *Service) CreateCalendarEvent(ctx context.Context, user *models.User, req *models.CreateCalendarEventRequest) (*models.CalendarEvent, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, req.CourseID, user)
	if err != nil {
		return nil, err
	}
	if err := Authorize(role, ActionManageCalendar, nil); err != nil {
		return nil, err
	}

	e := &models.CalendarEvent{
		CourseID:       req.CourseID,
		Title:          req.Title,
		Start:          req.Start,
		End:            req.End,
		DaysOfWeek:     req.DaysOfWeek,
		EndDate:        req.EndDate,
		LocationType:   req.LocationType,
		LocationDetail: req.LocationDetail,
	}
	if err := s.repo.AddCalendarEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListCalendarEvents returns the course's office hours to any member of the course.
func (s *Service) ListCalendarEvents(ctx context.Context, courseID string, user *models.User) ([]*models.CalendarEvent, error) {
	if _, err := s.Role(ctx, courseID, user); err != nil {
		return nil, err
	}
	return s.repo.ListCalendarEvents(ctx, courseID)
}

// TACheckinTimes reports when each staff member was checked in between start and end.
func (s *Service) TACheckinTimes(ctx context.Context, courseID string, user *models.User, start, end time.Time) (*models.TACheckinTimesResponse, error) {
	role, err := s.Role(ctx, courseID, user)
	if err != nil {
		return nil, err
	}
	if err := Authorize(role, ActionViewCheckInTimes, nil); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, qerrors.InvalidBody
	}

	events, err := s.repo.ListEvents(ctx, courseID, start, end)
	if err != nil {
		return nil, err
	}
	return &models.TACheckinTimesResponse{TACheckinTimes: analytics.PairCheckInTimes(events)}, nil
}
