package queue

import (
	"context"
	"time"

	"helpme/internal/analytics"
	"helpme/internal/models"
	"helpme/internal/qerrors"
)

// Status transitions a question's creator may make.
var studentTransitions = map[models.QuestionStatus][]models.QuestionStatus{
	models.StatusDrafting:       {models.StatusQueued, models.StatusDeletedDraft},
	models.StatusQueued:         {models.StatusConfirmedDeleted},
	models.StatusPriorityQueued: {models.StatusConfirmedDeleted},
	models.StatusCantFind:       {models.StatusPriorityQueued, models.StatusConfirmedDeleted},
	models.StatusReQueueing:     {models.StatusPriorityQueued, models.StatusConfirmedDeleted},
	models.StatusTADeleted:      {models.StatusConfirmedDeleted},
}

// Status transitions course staff may make.
var staffTransitions = map[models.QuestionStatus][]models.QuestionStatus{
	models.StatusQueued:         {models.StatusHelping, models.StatusTADeleted},
	models.StatusPriorityQueued: {models.StatusHelping, models.StatusTADeleted},
	models.StatusHelping: {
		models.StatusResolved,
		models.StatusCantFind,
		models.StatusReQueueing,
		models.StatusTADeleted,
	},
}

func allowedTransition(table map[models.QuestionStatus][]models.QuestionStatus, from, to models.QuestionStatus) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanAdmit reports whether the queue accepts new questions right now. The answer is a point in
// time: a question admitted just before the last staff member leaves is kept.
func (s *Service) CanAdmit(ctx context.Context, queueID string) (bool, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return false, err
	}
	return canAdmit(q), nil
}

func canAdmit(q *models.Queue) bool {
	return !q.IsDisabled && q.AllowQuestions
}

// CreateQuestion adds a student's question to the queue. A student may have one outstanding
// question per queue.
func (s *Service) CreateQuestion(ctx context.Context, user *models.User, req *models.CreateQuestionRequest) (*models.Question, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.authorizeForQueue(ctx, req.QueueID, user, ActionAskQuestion)
	if err != nil {
		return nil, err
	}
	if !canAdmit(q) {
		return nil, qerrors.QueueNotAcceptingError
	}

	existing, err := s.repo.ListQuestions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.CreatorID == user.ID && !e.Status.IsTerminal() {
			return nil, qerrors.QuestionAlreadyOpenError
		}
	}

	question := &models.Question{
		QueueID:      q.ID,
		CreatorID:    user.ID,
		Text:         req.Text,
		QuestionType: req.QuestionType,
		Status:       models.StatusQueued,
		CreatedAt:    s.now(),
	}
	if req.Draft {
		question.Status = models.StatusDrafting
	}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}

	s.publish(ctx, q.ID)
	return question, nil
}

// ListQuestions returns the queue's questions. Staff see every question; students see their own.
func (s *Service) ListQuestions(ctx context.Context, queueID string, user *models.User) ([]*models.Question, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, q.CourseID, user)
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.ListQuestions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if Authorize(role, ActionViewStaffData, q) == nil {
		return questions, nil
	}

	own := make([]*models.Question, 0)
	for _, question := range questions {
		if question.CreatorID == user.ID {
			own = append(own, question)
		}
	}
	return own, nil
}

// UpdateQuestionStatus moves a question to a new status. The question's creator and course staff
// each have their own set of allowed transitions. Moving a question back into the line is subject
// to the same admission check as creating one.
func (s *Service) UpdateQuestionStatus(ctx context.Context, user *models.User, req *models.UpdateQuestionRequest) (*models.Question, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, qerrors.InvalidStatusTransitionError
	}

	question, err := s.repo.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	q, err := s.repo.GetQueue(ctx, question.QueueID)
	if err != nil {
		return nil, err
	}
	role, err := s.Role(ctx, q.CourseID, user)
	if err != nil {
		return nil, err
	}

	isStaff := Authorize(role, ActionViewStaffData, q) == nil
	isCreator := question.CreatorID == user.ID
	if !isStaff && !isCreator {
		return nil, qerrors.NotAuthorizedError
	}

	from, to := question.Status, req.Status
	allowed := (isCreator && allowedTransition(studentTransitions, from, to)) ||
		(isStaff && allowedTransition(staffTransitions, from, to))
	if !allowed {
		return nil, qerrors.InvalidStatusTransitionError
	}
	if to.IsWaiting() && !from.IsWaiting() && !canAdmit(q) {
		return nil, qerrors.QueueNotAcceptingError
	}

	now := s.now()
	question.Status = to
	switch {
	case to == models.StatusHelping:
		question.TAHelpedID = user.ID
		question.HelpedAt = timePtr(now)
	case to.IsTerminal():
		question.ClosedAt = timePtr(now)
	}
	if err := s.repo.UpdateQuestion(ctx, question); err != nil {
		return nil, err
	}

	s.publish(ctx, q.ID)
	return question, nil
}

// QueueAnalytics summarizes the queue's questions for its staff.
func (s *Service) QueueAnalytics(ctx context.Context, queueID string, user *models.User) (*models.QueueAnalytics, error) {
	q, err := s.authorizeForQueue(ctx, queueID, user, ActionViewStaffData)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return analytics.GenerateAnalyticsFromQuestions(questions), nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
