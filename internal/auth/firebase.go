package auth

import (
	"context"
	"fmt"
	"time"

	firebaseSDK "firebase.google.com/go"
	firebaseAuth "firebase.google.com/go/auth"
	"github.com/golang/glog"
)

// FirebaseSessions uses Firebase Auth session cookies. Sign-in tokens are Firebase ID tokens.
type FirebaseSessions struct {
	authClient *firebaseAuth.Client
}

func NewFirebaseSessions(ctx context.Context, app *firebaseSDK.App) (*FirebaseSessions, error) {
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("Auth client error: %v", err)
	}
	return &FirebaseSessions{authClient: authClient}, nil
}

// Issue creates the session cookie. This also verifies the ID token, and the session cookie has
// the same claims as the ID token.
func (fs *FirebaseSessions) Issue(ctx context.Context, token string, expiresIn time.Duration) (string, error) {
	cookie, err := fs.authClient.SessionCookie(ctx, token, expiresIn)
	if err != nil {
		glog.Warningf("error creating session cookie: %v\n", err)
		return "", InvalidTokenError
	}
	return cookie, nil
}

// Verify checks the session cookie, including whether the user's Firebase session was revoked or
// the user was deleted or disabled.
func (fs *FirebaseSessions) Verify(ctx context.Context, session string) (*Identity, error) {
	token, err := fs.authClient.VerifySessionCookieAndCheckRevoked(ctx, session)
	if err != nil {
		return nil, InvalidSessionError
	}

	fbUser, err := fs.authClient.GetUser(ctx, token.UID)
	if err != nil {
		return nil, InvalidSessionError
	}

	return &Identity{
		UserID:      fbUser.UID,
		DisplayName: fbUser.DisplayName,
		Email:       fbUser.Email,
		PhotoURL:    fbUser.PhotoURL,
	}, nil
}
