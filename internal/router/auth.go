package router

import (
	"encoding/json"
	"net/http"

	"helpme/internal/auth"
	"helpme/internal/config"
	"helpme/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (rt *Router) AuthRoutes() *chi.Mux {
	router := chi.NewRouter()

	// Information about the current user
	router.With(rt.authn.RequireAuth(false)).Get("/me", getMeHandler)

	// Alter the current session. No auth middlewares required.
	router.Post("/session", rt.createSessionHandler)
	router.Post("/signout", signOutHandler)

	return router
}

// GET: /me
func getMeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	render.JSON(w, r, struct {
		*models.Profile
		ID string `json:"id"`
	}{user.Profile, user.ID})
}

// POST: /session
func (rt *Router) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Token == "" {
		http.Error(w, "a sign-in token is required", http.StatusBadRequest)
		return
	}

	expiresIn := config.Config.SessionCookieExpiration
	cookie, err := rt.authn.Sessions().Issue(r.Context(), req.Token, expiresIn)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.Config.SessionCookieName,
		Value:    cookie,
		MaxAge:   int(expiresIn.Seconds()),
		HttpOnly: true,
		SameSite: sameSite(),
		Secure:   config.Config.IsHTTPS,
		Path:     "/",
	})

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
}

// POST: /signout
func signOutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.Config.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: sameSite(),
		Secure:   config.Config.IsHTTPS,
		Path:     "/",
	})

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
}

func sameSite() http.SameSite {
	if config.Config.IsHTTPS {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
