package qerrors

import (
	"errors"
	"net/http"
)

var (
	// Course errors
	CourseNotFoundError     = errors.New("course not found")
	UserCourseNotFoundError = errors.New("user is not a member of this course")

	// User errors
	UserNotFoundError = errors.New("user not found")
	InvalidEmailError = errors.New("accounts with this email domain are not allowed")

	// Authorization errors
	NotAuthorizedError                  = errors.New("you are not authorized to perform this action")
	NotAuthorizedForProfessorQueueError = errors.New("only professors can check into or create a professor queue")

	// Queue errors
	QueueNotFoundError      = errors.New("queue not found")
	QueueAlreadyExistsError = errors.New("a queue already exists in this room")
	QueueDisabledError      = errors.New("this queue has been disabled")
	QueueCreateFailedError  = errors.New("an error occurred while creating the queue")
	InvalidRoomError        = errors.New("the provided room is not valid")

	// Presence errors
	AlreadyCheckedInError  = errors.New("you cannot check into multiple queues at the same time")
	DuplicatePresenceError = errors.New("you are already checked into this queue")

	// Question errors
	QuestionNotFoundError        = errors.New("question not found")
	QueueNotAcceptingError       = errors.New("this queue is not accepting questions right now")
	QuestionAlreadyOpenError     = errors.New("you already have an open question in this queue")
	InvalidStatusTransitionError = errors.New("this status change is not allowed")

	// Generic errors
	InvalidBody = errors.New("the request body is not valid")
)

// StatusCode maps an error returned by the queue service to the HTTP status it should be surfaced
// as. Anything unrecognised is a persistence failure.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, CourseNotFoundError),
		errors.Is(err, UserCourseNotFoundError),
		errors.Is(err, UserNotFoundError),
		errors.Is(err, QueueNotFoundError),
		errors.Is(err, QuestionNotFoundError):
		return http.StatusNotFound
	case errors.Is(err, NotAuthorizedError),
		errors.Is(err, InvalidEmailError),
		errors.Is(err, NotAuthorizedForProfessorQueueError),
		errors.Is(err, AlreadyCheckedInError):
		return http.StatusUnauthorized
	case errors.Is(err, QueueAlreadyExistsError),
		errors.Is(err, DuplicatePresenceError),
		errors.Is(err, QueueDisabledError),
		errors.Is(err, InvalidRoomError),
		errors.Is(err, QueueNotAcceptingError),
		errors.Is(err, QuestionAlreadyOpenError),
		errors.Is(err, InvalidStatusTransitionError),
		errors.Is(err, InvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
