package firebase

import (
	"context"
	"fmt"
	"sync"

	firebaseSDK "firebase.google.com/go"
	"google.golang.org/api/option"
)

var (
	appOnce sync.Once
	app     *firebaseSDK.App
	appErr  error
)

// App returns the process-wide Firebase App, initializing it from the credentials file on first
// use. The Firestore repository and the Firebase session verifier share it.
func App(ctx context.Context, credentialsFile string) (*firebaseSDK.App, error) {
	appOnce.Do(func() {
		opt := option.WithCredentialsFile(credentialsFile)
		app, appErr = firebaseSDK.NewApp(ctx, nil, opt)
		if appErr != nil {
			appErr = fmt.Errorf("error initializing Firebase app: %w", appErr)
		}
	})
	return app, appErr
}
