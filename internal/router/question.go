package router

import (
	"net/http"

	"helpme/internal/auth"
	"helpme/internal/middleware"
	"helpme/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (rt *Router) QuestionRoutes() *chi.Mux {
	router := chi.NewRouter()
	router.Use(rt.authn.RequireAuth(false))

	router.With(middleware.QuestionCtx()).Patch("/{questionID}", rt.updateQuestionHandler)

	return router
}

// PATCH: /{questionID}
func (rt *Router) updateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	var req models.UpdateQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.QuestionID = middleware.QuestionID(r)

	question, err := rt.svc.UpdateQuestionStatus(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, question)
}
