package queue

import (
	"errors"
	"testing"

	"helpme/internal/models"
	"helpme/internal/qerrors"
)

func TestAdmissionGateRejectsUnstaffedQueue(t *testing.T) {
	f := newFixture(t)

	view, _ := f.svc.GenerateQueue(f.ctx, f.courseID, "A101", f.ta1, &models.GenerateQueueRequest{})
	if ok, err := f.svc.CanAdmit(f.ctx, view.ID); err != nil || ok {
		t.Fatalf("Expected CanAdmit to be false, got %v, %v", ok, err)
	}

	_, err := f.svc.CreateQuestion(f.ctx, f.student, &models.CreateQuestionRequest{QueueID: view.ID, Text: "hello?"})
	if !errors.Is(err, qerrors.QueueNotAcceptingError) {
		t.Fatalf("Expected QueueNotAcceptingError, got %v", err)
	}
	questions, _ := f.repo.ListQuestions(f.ctx, view.ID)
	if len(questions) != 0 {
		t.Errorf("Expected no question to be admitted, got %d", len(questions))
	}
}

func TestCreateQuestion(t *testing.T) {
	f := newFixture(t)
	view, _ := f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)

	question, err := f.svc.CreateQuestion(f.ctx, f.student, &models.CreateQuestionRequest{
		QueueID:      view.ID,
		Text:         "Why does my proof not hold?",
		QuestionType: "Conceptual",
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if question.Status != models.StatusQueued || question.CreatorID != "student" || question.ID == "" {
		t.Errorf("Expected a queued question by student, got %+v", question)
	}

	_, err = f.svc.CreateQuestion(f.ctx, f.student, &models.CreateQuestionRequest{QueueID: view.ID, Text: "again"})
	if !errors.Is(err, qerrors.QuestionAlreadyOpenError) {
		t.Errorf("Expected QuestionAlreadyOpenError, got %v", err)
	}

	_, err = f.svc.CreateQuestion(f.ctx, f.ta2, &models.CreateQuestionRequest{QueueID: view.ID, Text: "staff question"})
	if !errors.Is(err, qerrors.NotAuthorizedError) {
		t.Errorf("Expected staff not to ask questions, got %v", err)
	}

	_, err = f.svc.CreateQuestion(f.ctx, f.student, &models.CreateQuestionRequest{QueueID: view.ID})
	if !errors.Is(err, qerrors.InvalidBody) {
		t.Errorf("Expected an empty question to be rejected, got %v", err)
	}

	refreshed, _ := f.svc.GetQueueView(f.ctx, view.ID, f.student)
	if refreshed.QueueSize != 1 {
		t.Errorf("Expected queue size 1, got %d", refreshed.QueueSize)
	}
}

func TestCreateDraftQuestion(t *testing.T) {
	f := newFixture(t)
	view, _ := f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)

	question, err := f.svc.CreateQuestion(f.ctx, f.student, &models.CreateQuestionRequest{QueueID: view.ID, Text: "draft", Draft: true})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if question.Status != models.StatusDrafting {
		t.Errorf("Expected DRAFTING, got %s", question.Status)
	}

	refreshed, _ := f.svc.GetQueueView(f.ctx, view.ID, f.ta1)
	if refreshed.QueueSize != 0 {
		t.Errorf("Expected drafts not to count towards the queue size, got %d", refreshed.QueueSize)
	}
}

func TestQuestionLifecycle(t *testing.T) {
	f := newFixture(t)
	view, _ := f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)
	question, _ := f.svc.CreateQuestion(f.ctx, f.student, &models.CreateQuestionRequest{QueueID: view.ID, Text: "help"})

	update := func(user *models.User, status models.QuestionStatus) (*models.Question, error) {
		return f.svc.UpdateQuestionStatus(f.ctx, user, &models.UpdateQuestionRequest{QuestionID: question.ID, Status: status})
	}

	if _, err := update(f.student, models.StatusHelping); !errors.Is(err, qerrors.InvalidStatusTransitionError) {
		t.Errorf("Expected students not to mark themselves helped, got %v", err)
	}

	helped, err := update(f.ta2, models.StatusHelping)
	if err != nil {
		t.Fatalf("HELPING: %v", err)
	}
	if helped.TAHelpedID != "ta2" || helped.HelpedAt == nil {
		t.Errorf("Expected helper and help time to be recorded, got %+v", helped)
	}

	if _, err := update(f.ta2, models.StatusCantFind); err != nil {
		t.Fatalf("CANT_FIND: %v", err)
	}
	if _, err := update(f.student, models.StatusPriorityQueued); err != nil {
		t.Fatalf("PRIORITY_QUEUED: %v", err)
	}
	if _, err := update(f.ta1, models.StatusHelping); err != nil {
		t.Fatalf("HELPING again: %v", err)
	}

	resolved, err := update(f.ta1, models.StatusResolved)
	if err != nil {
		t.Fatalf("RESOLVED: %v", err)
	}
	if resolved.ClosedAt == nil || resolved.TAHelpedID != "ta1" {
		t.Errorf("Expected a closed question helped by ta1, got %+v", resolved)
	}

	if _, err := update(f.ta1, models.StatusQueued); !errors.Is(err, qerrors.InvalidStatusTransitionError) {
		t.Errorf("Expected resolved questions to stay resolved, got %v", err)
	}
}

func TestRequeueNeedsOpenQueue(t *testing.T) {
	f := newFixture(t)
	view, _ := f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)
	question := f.addQuestion(t, view.ID, "student", models.StatusCantFind)

	f.svc.CheckOut(f.ctx, f.courseID, "A101", f.ta1)

	_, err := f.svc.UpdateQuestionStatus(f.ctx, f.student, &models.UpdateQuestionRequest{QuestionID: question.ID, Status: models.StatusPriorityQueued})
	if !errors.Is(err, qerrors.QueueNotAcceptingError) {
		t.Errorf("Expected QueueNotAcceptingError, got %v", err)
	}

	withdrawn, err := f.svc.UpdateQuestionStatus(f.ctx, f.student, &models.UpdateQuestionRequest{QuestionID: question.ID, Status: models.StatusConfirmedDeleted})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if withdrawn.Status != models.StatusConfirmedDeleted {
		t.Errorf("Expected CONFIRMED_DELETED, got %s", withdrawn.Status)
	}
}

func TestOtherStudentsCannotTouchQuestion(t *testing.T) {
	f := newFixture(t)
	other := newUser(f.ctx, t, f.repo, "other")
	f.repo.SetCourseRole(f.ctx, f.courseID, "other", models.RoleStudent)

	view, _ := f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)
	question, _ := f.svc.CreateQuestion(f.ctx, f.student, &models.CreateQuestionRequest{QueueID: view.ID, Text: "mine"})

	_, err := f.svc.UpdateQuestionStatus(f.ctx, other, &models.UpdateQuestionRequest{QuestionID: question.ID, Status: models.StatusConfirmedDeleted})
	if !errors.Is(err, qerrors.NotAuthorizedError) {
		t.Errorf("Expected NotAuthorizedError, got %v", err)
	}

	visible, err := f.svc.ListQuestions(f.ctx, view.ID, other)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("Expected students to see only their own questions, got %d", len(visible))
	}

	all, _ := f.svc.ListQuestions(f.ctx, view.ID, f.ta2)
	if len(all) != 1 {
		t.Errorf("Expected staff to see every question, got %d", len(all))
	}
}

func TestQueueAnalytics(t *testing.T) {
	f := newFixture(t)
	view, _ := f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)
	f.addQuestion(t, view.ID, "s1", models.StatusQueued)
	f.addQuestion(t, view.ID, "s2", models.StatusCantFind)

	analytics, err := f.svc.QueueAnalytics(f.ctx, view.ID, f.ta1)
	if err != nil {
		t.Fatalf("QueueAnalytics: %v", err)
	}
	if len(analytics.StudentsWaiting) != 1 || len(analytics.StudentsNoShow) != 1 {
		t.Errorf("Expected one waiting and one no-show student, got %+v", analytics)
	}

	if _, err := f.svc.QueueAnalytics(f.ctx, view.ID, f.student); !errors.Is(err, qerrors.NotAuthorizedError) {
		t.Errorf("Expected students not to see analytics, got %v", err)
	}
}
