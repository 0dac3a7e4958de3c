package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"helpme/internal/auth"
	"helpme/internal/middleware"

	"github.com/golang/glog"
)

const keepAliveInterval = 30 * time.Second

// GET: /{queueID}/sse
//
// Streams the queue view as server-sent events: once on connect, then after every change.
func (rt *Router) queueEventsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetUserFromRequest(r)
	queueID := middleware.QueueID(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Authorize before any header is written so failures get a proper status.
	view, err := rt.svc.GetQueueView(r.Context(), queueID, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updates, release := rt.svc.Notifier().Subscribe(r.Context(), queueID)
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: queue\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send(view); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-rt.closing:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-updates:
			view, err := rt.svc.GetQueueView(r.Context(), queueID, user)
			if err != nil {
				glog.Warningf("sse: reloading queue %s: %v\n", queueID, err)
				return
			}
			if err := send(view); err != nil {
				return
			}
		}
	}
}
