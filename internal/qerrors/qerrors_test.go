package qerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	cases := map[error]int{
		nil:                                 http.StatusOK,
		QueueNotFoundError:                  http.StatusNotFound,
		UserCourseNotFoundError:             http.StatusNotFound,
		AlreadyCheckedInError:               http.StatusUnauthorized,
		InvalidEmailError:                   http.StatusUnauthorized,
		NotAuthorizedForProfessorQueueError: http.StatusUnauthorized,
		QueueAlreadyExistsError:             http.StatusBadRequest,
		QueueNotAcceptingError:              http.StatusBadRequest,
		errors.New("connection reset"):      http.StatusInternalServerError,
	}

	for err, expected := range cases {
		if got := StatusCode(err); got != expected {
			t.Errorf("Expected %v to map to %d, got %d", err, expected, got)
		}
	}
}

func TestStatusCodeUnwraps(t *testing.T) {
	err := fmt.Errorf("checking in to A101: %w", AlreadyCheckedInError)
	if got := StatusCode(err); got != http.StatusUnauthorized {
		t.Errorf("Expected wrapped presence conflict to map to 401, got %d", got)
	}

	err = fmt.Errorf("%w: %v", QueueCreateFailedError, errors.New("disk full"))
	if got := StatusCode(err); got != http.StatusInternalServerError {
		t.Errorf("Expected queue creation failure to map to 500, got %d", got)
	}
}
