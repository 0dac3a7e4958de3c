package router

import (
	"net/http"

	"helpme/internal/auth"
	"helpme/internal/middleware"
	"helpme/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (rt *Router) QueueRoutes() *chi.Mux {
	router := chi.NewRouter()
	router.Use(rt.authn.RequireAuth(false))

	router.Route("/{queueID}", func(router chi.Router) {
		// Sets "queueID" from URL param in the context
		router.Use(middleware.QueueCtx())

		router.Get("/", rt.getQueueHandler)
		router.Patch("/", rt.editQueueHandler)
		router.Delete("/", rt.disableQueueHandler)
		router.Post("/clean", rt.cleanQueueHandler)

		router.Get("/questions", rt.listQuestionsHandler)
		router.Post("/questions", rt.createQuestionHandler)
		router.Get("/analytics", rt.queueAnalyticsHandler)

		// Live updates
		router.Get("/sse", rt.queueEventsHandler)
	})

	return router
}

// GET: /{queueID}
func (rt *Router) getQueueHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	view, err := rt.svc.GetQueueView(r.Context(), middleware.QueueID(r), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, view)
}

// PATCH: /{queueID}
func (rt *Router) editQueueHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	var req models.EditQueueRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.QueueID = middleware.QueueID(r)

	view, err := rt.svc.EditQueue(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, view)
}

// DELETE: /{queueID}
func (rt *Router) disableQueueHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	if err := rt.svc.Disable(r.Context(), middleware.QueueID(r), user); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Successfully disabled queue"))
}

// POST: /{queueID}/clean
func (rt *Router) cleanQueueHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	n, err := rt.svc.Clean(r.Context(), middleware.QueueID(r), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]int{"cleaned": n})
}

// GET: /{queueID}/questions
func (rt *Router) listQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	questions, err := rt.svc.ListQuestions(r.Context(), middleware.QueueID(r), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, questions)
}

// POST: /{queueID}/questions
func (rt *Router) createQuestionHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	var req models.CreateQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.QueueID = middleware.QueueID(r)

	question, err := rt.svc.CreateQuestion(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, question)
}

// GET: /{queueID}/analytics
func (rt *Router) queueAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	res, err := rt.svc.QueueAnalytics(r.Context(), middleware.QueueID(r), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, res)
}
