package router

import (
	"net/http"
	"net/url"
	"time"

	"helpme/internal/auth"
	"helpme/internal/middleware"
	"helpme/internal/models"
	"helpme/internal/qerrors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (rt *Router) CourseRoutes() *chi.Mux {
	router := chi.NewRouter()

	// Creating courses is reserved to site admins
	router.With(rt.authn.RequireAuth(true)).Post("/", rt.createCourseHandler)

	router.Route("/{courseID}", func(router chi.Router) {
		router.Use(rt.authn.RequireAuth(false))
		// Sets "courseID" from URL param in the context
		router.Use(middleware.CourseCtx())

		router.Get("/", rt.getCourseHandler)
		router.Post("/members", rt.setCourseRoleHandler)

		// Staff presence
		router.Post("/ta_location/{room}", rt.checkInHandler)
		router.Delete("/ta_location/{room}", rt.checkOutHandler)
		router.Post("/generate_queue/{room}", rt.generateQueueHandler)
		router.Get("/ta_check_in_times", rt.taCheckinTimesHandler)

		// Office hours
		router.Get("/calendar", rt.listCalendarEventsHandler)
		router.Post("/calendar", rt.createCalendarEventHandler)
	})

	return router
}

// roomParam returns the decoded {room} URL param. chi matches on the raw path only when it
// differs from the decoded one (e.g. an escaped "/"), and only then is the param still escaped.
func roomParam(r *http.Request) (string, error) {
	room := chi.URLParam(r, "room")
	if r.URL.RawPath == "" {
		return room, nil
	}
	room, err := url.PathUnescape(room)
	if err != nil {
		return "", qerrors.InvalidRoomError
	}
	return room, nil
}

// POST: /
func (rt *Router) createCourseHandler(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var req models.CreateCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := rt.svc.CreateCourse(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, c)
}

// GET: /{courseID}
func (rt *Router) getCourseHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	view, err := rt.svc.GetCourseView(r.Context(), middleware.CourseID(r), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, view)
}

// POST: /{courseID}/members
func (rt *Router) setCourseRoleHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	var req models.SetCourseRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.CourseID = middleware.CourseID(r)

	if err := rt.svc.SetCourseRole(r.Context(), user, &req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Successfully set the role of " + req.UserID))
}

// POST: /{courseID}/ta_location/{room}
func (rt *Router) checkInHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)
	room, err := roomParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := rt.svc.CheckIn(r.Context(), middleware.CourseID(r), room, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, view)
}

// DELETE: /{courseID}/ta_location/{room}
func (rt *Router) checkOutHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)
	room, err := roomParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := rt.svc.CheckOut(r.Context(), middleware.CourseID(r), room, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, res)
}

// POST: /{courseID}/generate_queue/{room}
func (rt *Router) generateQueueHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)
	room, err := roomParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.GenerateQueueRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := rt.svc.GenerateQueue(r.Context(), middleware.CourseID(r), room, user, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, view)
}

// GET: /{courseID}/ta_check_in_times?startDate=&endDate=
func (rt *Router) taCheckinTimesHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	start, err := parseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		http.Error(w, "startDate: "+err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		http.Error(w, "endDate: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := rt.svc.TACheckinTimes(r.Context(), middleware.CourseID(r), user, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, res)
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// GET: /{courseID}/calendar
func (rt *Router) listCalendarEventsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	events, err := rt.svc.ListCalendarEvents(r.Context(), middleware.CourseID(r), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, events)
}

// POST: /{courseID}/calendar
func (rt *Router) createCalendarEventHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)

	var req models.CreateCalendarEventRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.CourseID = middleware.CourseID(r)

	e, err := rt.svc.CreateCalendarEvent(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, e)
}
