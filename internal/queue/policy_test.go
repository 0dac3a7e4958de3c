package queue

import (
	"errors"
	"testing"

	"helpme/internal/models"
	"helpme/internal/qerrors"
)

func TestAuthorize(t *testing.T) {
	professorQueue := &models.Queue{IsProfessorQueue: true}
	regularQueue := &models.Queue{}

	tests := []struct {
		role     models.Role
		action   Action
		queue    *models.Queue
		expected error
	}{
		{models.RoleTA, ActionCheckIn, regularQueue, nil},
		{models.RoleTA, ActionCheckIn, nil, nil},
		{models.RoleTA, ActionCheckIn, professorQueue, qerrors.NotAuthorizedForProfessorQueueError},
		{models.RoleTA, ActionGenerateQueue, professorQueue, qerrors.NotAuthorizedForProfessorQueueError},
		{models.RoleProfessor, ActionCheckIn, professorQueue, nil},
		{models.RoleStudent, ActionCheckIn, regularQueue, qerrors.NotAuthorizedError},
		{models.RoleTA, ActionCheckOut, professorQueue, nil},
		{models.RoleStudent, ActionClean, regularQueue, qerrors.NotAuthorizedError},
		{models.RoleTA, ActionDisable, regularQueue, nil},
		{models.RoleStudent, ActionAskQuestion, regularQueue, nil},
		{models.RoleTA, ActionAskQuestion, regularQueue, qerrors.NotAuthorizedError},
		{models.RoleTA, ActionManageRoster, nil, qerrors.NotAuthorizedError},
		{models.RoleProfessor, ActionManageRoster, nil, nil},
		{models.RoleTA, ActionManageCalendar, nil, nil},
		{models.RoleTA, ActionViewCheckInTimes, nil, qerrors.NotAuthorizedError},
		{models.Role("guest"), ActionCheckOut, nil, qerrors.NotAuthorizedError},
		{models.RoleProfessor, Action(-1), nil, qerrors.NotAuthorizedError},
	}

	for _, tt := range tests {
		err := Authorize(tt.role, tt.action, tt.queue)
		if !errors.Is(err, tt.expected) {
			t.Errorf("Authorize(%s, %d, %+v): expected %v, got %v", tt.role, tt.action, tt.queue, tt.expected, err)
		}
	}
}
