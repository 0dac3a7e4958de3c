package models

import (
	"fmt"
	"strings"

	"helpme/internal/qerrors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a request struct against its validate tags. Errors read as one line per field.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", qerrors.InvalidBody, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", qerrors.InvalidBody, strings.Join(msgs, "; "))
}

// NormalizeRoom checks a room name taken from a URL path and returns it with surrounding
// whitespace removed, which is the form queues are stored under.
func NormalizeRoom(room string) (string, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return "", fmt.Errorf("%w: room must be a non-empty string", qerrors.InvalidRoomError)
	}
	if len(room) > 100 {
		return "", fmt.Errorf("%w: room must not be longer than 100 characters", qerrors.InvalidRoomError)
	}
	return room, nil
}
