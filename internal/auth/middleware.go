package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"helpme/internal/config"
	"helpme/internal/models"
	"helpme/internal/qerrors"
	"helpme/internal/repository"

	"github.com/golang/glog"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// Authenticator resolves session cookies to users.
type Authenticator struct {
	sessions Sessions
	repo     repository.Repository
}

func NewAuthenticator(sessions Sessions, repo repository.Repository) *Authenticator {
	return &Authenticator{sessions: sessions, repo: repo}
}

// Sessions returns the session issuer used by the authenticator.
func (a *Authenticator) Sessions() Sessions {
	return a.sessions
}

// RequireAuth is a middleware that rejects requests without a valid session cookie. The User associated with the
// request is added to the request context, and can be accessed via GetUserFromRequest.
func (a *Authenticator) RequireAuth(adminOnly bool) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenCookie, err := r.Cookie(config.Config.SessionCookieName)
			if err != nil {
				// Missing session cookie.
				rejectUnauthorizedRequest(w)
				return
			}

			identity, err := a.sessions.Verify(r.Context(), tokenCookie.Value)
			if err != nil {
				rejectUnauthorizedRequest(w)
				return
			}

			user, err := a.userFor(r.Context(), identity)
			if errors.Is(err, qerrors.InvalidEmailError) {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			if err != nil {
				glog.Errorf("error loading user %s: %v\n", identity.UserID, err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if adminOnly && !user.IsAdmin {
				rejectUnauthorizedRequest(w)
				return
			}

			// create a new request context containing the authenticated user
			ctxWithUser := context.WithValue(r.Context(), currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctxWithUser))
		})
	}
}

// userFor loads the user behind identity, creating their profile on first sign-in.
func (a *Authenticator) userFor(ctx context.Context, identity *Identity) (*models.User, error) {
	user, err := a.repo.GetUser(ctx, identity.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, qerrors.UserNotFoundError) {
		return nil, err
	}

	// Check the new user's email against the list of allowed domains.
	if !emailDomainAllowed(identity.Email) {
		glog.Warningf("rejected sign-up of %s with email %q\n", identity.UserID, identity.Email)
		return nil, qerrors.InvalidEmailError
	}

	user = &models.User{
		ID: identity.UserID,
		Profile: &models.Profile{
			DisplayName: identity.DisplayName,
			Email:       identity.Email,
			PhotoURL:    identity.PhotoURL,
		},
	}
	if err := a.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserFromRequest returns a User if it exists within the request context. Only works with routes that implement the
// RequireAuth middleware.
func GetUserFromRequest(r *http.Request) (*models.User, error) {
	user, ok := r.Context().Value(currentUserKey).(*models.User)
	if ok && user != nil {
		return user, nil
	}

	return nil, qerrors.UserNotFoundError
}

// WithUser returns a copy of ctx carrying user, as RequireAuth does.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// Helpers

func emailDomainAllowed(email string) bool {
	allowed := config.Config.AllowedEmailDomains
	if len(allowed) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, d := range allowed {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

func rejectUnauthorizedRequest(w http.ResponseWriter) {
	http.Error(w, "You must be authenticated to access this resource", http.StatusUnauthorized)
}
