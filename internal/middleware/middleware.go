package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const (
	queueIDKey    contextKey = "queueID"
	courseIDKey   contextKey = "courseID"
	questionIDKey contextKey = "questionID"
)

// QueueCtx sets "queueID" from the URL param in the request context.
func QueueCtx() func(handler http.Handler) http.Handler {
	return urlParamCtx("queueID", queueIDKey)
}

// CourseCtx sets "courseID" from the URL param in the request context.
func CourseCtx() func(handler http.Handler) http.Handler {
	return urlParamCtx("courseID", courseIDKey)
}

// QuestionCtx sets "questionID" from the URL param in the request context.
func QuestionCtx() func(handler http.Handler) http.Handler {
	return urlParamCtx("questionID", questionIDKey)
}

func urlParamCtx(param string, key contextKey) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value := chi.URLParam(r, param)
			if value == "" {
				http.Error(w, "missing "+param, http.StatusBadRequest)
				return
			}

			ctx := context.WithValue(r.Context(), key, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func QueueID(r *http.Request) string {
	id, _ := r.Context().Value(queueIDKey).(string)
	return id
}

func CourseID(r *http.Request) string {
	id, _ := r.Context().Value(courseIDKey).(string)
	return id
}

func QuestionID(r *http.Request) string {
	id, _ := r.Context().Value(questionIDKey).(string)
	return id
}
