package auth

import (
	"context"
	"errors"
	"time"
)

var (
	InvalidSessionError = errors.New("the session is invalid or has expired")
	InvalidTokenError   = errors.New("the sign-in token is invalid")
)

// Identity is who a verified session belongs to.
type Identity struct {
	UserID      string
	DisplayName string
	Email       string
	PhotoURL    string
}

// Sessions issues and verifies session cookie values.
type Sessions interface {
	// Issue exchanges a sign-in token for a session cookie value valid for expiresIn.
	Issue(ctx context.Context, token string, expiresIn time.Duration) (string, error)
	// Verify returns the identity behind a session cookie value, or InvalidSessionError.
	Verify(ctx context.Context, session string) (*Identity, error)
}
