package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// sseKeepAlive is how often an idle stream gets a comment line so proxies
// do not close it.
const sseKeepAlive = 25 * time.Second

// ListNotifications handles GET /notifications.
// Supports ?unread=true and ?limit= (default 50, max 200).
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	var (
		unread *bool
		limit  *int
	)
	if !queryParam(w, r, "unread", &unread) || !queryParam(w, r, "limit", &limit) {
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	ns, err := s.Notifications.List(r.Context(), actorID(r), unread != nil && *unread, n)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

// MarkNotificationRead handles POST /notifications/{id}/read.
func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Notifications.MarkRead(r.Context(), actorID(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type markAllResponse struct {
	Updated int64 `json:"updated"`
}

// MarkAllNotificationsRead handles POST /notifications/read-all.
func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.Notifications.MarkAllRead(r.Context(), actorID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markAllResponse{Updated: n})
}

// DeleteNotification handles DELETE /notifications/{id}.
func (s *Server) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Notifications.Delete(r.Context(), actorID(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamNotifications handles GET /notifications/stream: a server-sent
// events feed of new notifications for the caller. Each event is named
// "notification" and carries the notification as JSON.
func (s *Server) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}
	ctx := r.Context()
	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ch, err := s.Notifications.Subscribe(ctx, actorID(r))
	if err != nil {
		fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case n, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				slog.WarnContext(ctx, "encode notification event", "notification_id", n.ID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", n.ID, data)
			flusher.Flush()
		}
	}
}
