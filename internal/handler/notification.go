package handler

import (
	"net/http"

	"github.com/sakif/snippet-lab/internal/notify"
)

// NotificationSource is read by the notifications endpoint. *notify.Feed
// satisfies it.
type NotificationSource interface {
	Recent() []notify.Notification
}

// NotificationHandler exposes the toast feed so clients can poll it.
type NotificationHandler struct {
	feed NotificationSource
}

func NewNotificationHandler(feed NotificationSource) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

// HandleList returns recent notifications, newest first.
//
// HTTP: GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.feed.Recent())
}

// HandleHealth is the liveness probe.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
