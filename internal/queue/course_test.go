package queue

import (
	"errors"
	"testing"
	"time"

	"helpme/internal/models"
	"helpme/internal/qerrors"
)

func TestCreateCourse(t *testing.T) {
	f := newFixture(t)
	admin := &models.User{ID: "admin", Profile: &models.Profile{IsAdmin: true}}

	c, err := f.svc.CreateCourse(f.ctx, admin, &models.CreateCourseRequest{Title: "Systems", Code: "CS300"})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	role, err := f.repo.GetCourseRole(f.ctx, c.ID, "admin")
	if err != nil || role != models.RoleProfessor {
		t.Errorf("Expected creator to be professor, got %q, %v", role, err)
	}

	if _, err := f.svc.CreateCourse(f.ctx, f.prof, &models.CreateCourseRequest{Title: "x", Code: "y"}); !errors.Is(err, qerrors.NotAuthorizedError) {
		t.Errorf("Expected non-admins not to create courses, got %v", err)
	}
	if _, err := f.svc.CreateCourse(f.ctx, admin, &models.CreateCourseRequest{Title: "No code"}); !errors.Is(err, qerrors.InvalidBody) {
		t.Errorf("Expected missing code to be rejected, got %v", err)
	}
}

func TestCourseViewFiltersQueuesForStudents(t *testing.T) {
	f := newFixture(t)

	f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)
	f.svc.GenerateQueue(f.ctx, f.courseID, "B202", f.ta2, &models.GenerateQueueRequest{})

	staffView, err := f.svc.GetCourseView(f.ctx, f.courseID, f.ta2)
	if err != nil {
		t.Fatalf("GetCourseView: %v", err)
	}
	if staffView.Role != models.RoleTA || len(staffView.Queues) != 2 {
		t.Errorf("Expected staff to see both queues, got %d", len(staffView.Queues))
	}

	studentView, err := f.svc.GetCourseView(f.ctx, f.courseID, f.student)
	if err != nil {
		t.Fatalf("GetCourseView: %v", err)
	}
	if len(studentView.Queues) != 1 || studentView.Queues[0].Room != "A101" {
		t.Errorf("Expected students to see only the open queue, got %+v", studentView.Queues)
	}
}

func TestSetCourseRole(t *testing.T) {
	f := newFixture(t)
	newTA := newUser(f.ctx, t, f.repo, "newta")

	req := &models.SetCourseRoleRequest{CourseID: f.courseID, UserID: newTA.ID, Role: models.RoleTA}
	if err := f.svc.SetCourseRole(f.ctx, f.ta1, req); !errors.Is(err, qerrors.NotAuthorizedError) {
		t.Errorf("Expected TAs not to manage the roster, got %v", err)
	}
	if err := f.svc.SetCourseRole(f.ctx, f.prof, req); err != nil {
		t.Fatalf("SetCourseRole: %v", err)
	}
	if _, err := f.svc.CheckIn(f.ctx, f.courseID, "A101", newTA); err != nil {
		t.Errorf("Expected new TA to check in, got %v", err)
	}

	bad := &models.SetCourseRoleRequest{CourseID: f.courseID, UserID: newTA.ID, Role: "dean"}
	if err := f.svc.SetCourseRole(f.ctx, f.prof, bad); !errors.Is(err, qerrors.InvalidBody) {
		t.Errorf("Expected unknown roles to be rejected, got %v", err)
	}

	missing := &models.SetCourseRoleRequest{CourseID: f.courseID, UserID: "ghost", Role: models.RoleStudent}
	if err := f.svc.SetCourseRole(f.ctx, f.prof, missing); !errors.Is(err, qerrors.UserNotFoundError) {
		t.Errorf("Expected UserNotFoundError, got %v", err)
	}
}

func TestCalendarEvents(t *testing.T) {
	f := newFixture(t)

	req := &models.CreateCalendarEventRequest{
		CourseID:     f.courseID,
		Title:        "Office hours",
		Start:        baseTime,
		End:          baseTime.Add(2 * time.Hour),
		DaysOfWeek:   []int{1, 3},
		LocationType: models.LocationOnline,
	}
	if _, err := f.svc.CreateCalendarEvent(f.ctx, f.student, req); !errors.Is(err, qerrors.NotAuthorizedError) {
		t.Errorf("Expected students not to schedule office hours, got %v", err)
	}
	e, err := f.svc.CreateCalendarEvent(f.ctx, f.ta1, req)
	if err != nil {
		t.Fatalf("CreateCalendarEvent: %v", err)
	}
	if e.ID == "" {
		t.Errorf("Expected an ID to be assigned")
	}

	invalid := *req
	invalid.End = baseTime.Add(-time.Hour)
	if _, err := f.svc.CreateCalendarEvent(f.ctx, f.ta1, &invalid); !errors.Is(err, qerrors.InvalidBody) {
		t.Errorf("Expected an event ending before it starts to be rejected, got %v", err)
	}

	events, err := f.svc.ListCalendarEvents(f.ctx, f.courseID, f.student)
	if err != nil {
		t.Fatalf("ListCalendarEvents: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Office hours" {
		t.Errorf("Expected the created event, got %+v", events)
	}
}

func TestTACheckinTimes(t *testing.T) {
	f := newFixture(t)

	f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta1)
	f.svc.CheckIn(f.ctx, f.courseID, "A101", f.ta2)
	f.svc.CheckOut(f.ctx, f.courseID, "A101", f.ta1)

	res, err := f.svc.TACheckinTimes(f.ctx, f.courseID, f.prof, baseTime, baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("TACheckinTimes: %v", err)
	}
	if len(res.TACheckinTimes) != 2 {
		t.Fatalf("Expected two check-in intervals, got %+v", res.TACheckinTimes)
	}
	first, second := res.TACheckinTimes[0], res.TACheckinTimes[1]
	if first.UserID != "ta1" || first.CheckoutTime == nil || first.InProgress {
		t.Errorf("Expected a finished interval for ta1, got %+v", first)
	}
	if second.UserID != "ta2" || second.CheckoutTime != nil || !second.InProgress {
		t.Errorf("Expected an in-progress interval for ta2, got %+v", second)
	}

	if _, err := f.svc.TACheckinTimes(f.ctx, f.courseID, f.ta1, baseTime, baseTime.Add(time.Hour)); !errors.Is(err, qerrors.NotAuthorizedError) {
		t.Errorf("Expected TAs not to see the report, got %v", err)
	}
	if _, err := f.svc.TACheckinTimes(f.ctx, f.courseID, f.prof, baseTime, baseTime); !errors.Is(err, qerrors.InvalidBody) {
		t.Errorf("Expected an empty range to be rejected, got %v", err)
	}
}
