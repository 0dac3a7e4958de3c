package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"helpme/internal/auth"
	"helpme/internal/qerrors"
	"helpme/internal/queue"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/golang/glog"
)

// Router holds what the HTTP handlers need.
type Router struct {
	svc   *queue.Service
	authn *auth.Authenticator

	// closing is closed by CloseStreams to end every open event stream.
	closing   chan struct{}
	closeOnce sync.Once
}

func New(svc *queue.Service, authn *auth.Authenticator) *Router {
	return &Router{svc: svc, authn: authn, closing: make(chan struct{})}
}

// CloseStreams ends every open event stream. http.Server.Shutdown waits for active requests and
// does not cancel their contexts, so servers register this with RegisterOnShutdown.
func (rt *Router) CloseStreams() {
	rt.closeOnce.Do(func() { close(rt.closing) })
}

func HealthRoutes() *chi.Mux {
	router := chi.NewRouter()
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	return router
}

// writeError answers with the status the error maps to and its message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := qerrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		glog.Errorf("%s %s: %v\n", r.Method, r.URL.Path, err)
	}
	http.Error(w, err.Error(), status)
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
