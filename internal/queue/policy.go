package queue

import (
	"helpme/internal/models"
	"helpme/internal/qerrors"
)

// Action is something a course member may try to do.
type Action int

const (
	ActionCheckIn Action = iota
	ActionCheckOut
	ActionGenerateQueue
	ActionClean
	ActionDisable
	ActionEditQueue
	ActionViewStaffData
	ActionAskQuestion
	ActionManageRoster
	ActionManageCalendar
	ActionViewCheckInTimes
)

// Authorize decides whether a course member with the given role may perform action. q is the
// queue the action targets, or nil when there is none.
func Authorize(role models.Role, action Action, q *models.Queue) error {
	switch action {
	case ActionCheckIn, ActionGenerateQueue:
		if !role.IsStaff() {
			return qerrors.NotAuthorizedError
		}
		if q != nil && q.IsProfessorQueue && role != models.RoleProfessor {
			return qerrors.NotAuthorizedForProfessorQueueError
		}
		return nil
	case ActionCheckOut, ActionClean, ActionDisable, ActionEditQueue, ActionViewStaffData, ActionManageCalendar:
		if !role.IsStaff() {
			return qerrors.NotAuthorizedError
		}
		return nil
	case ActionAskQuestion:
		if role != models.RoleStudent {
			return qerrors.NotAuthorizedError
		}
		return nil
	case ActionManageRoster, ActionViewCheckInTimes:
		if role != models.RoleProfessor {
			return qerrors.NotAuthorizedError
		}
		return nil
	}
	return qerrors.NotAuthorizedError
}
