package handlers

import (
	"net/http"

	"questlog/internal/notification"
	"questlog/services"
)

type NotificationHandler struct {
	dispatcher *services.NotificationDispatcher
}

func NewNotificationHandler(dispatcher *services.NotificationDispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// GET /api/v1/reminders - scheduled reminders, soonest first. ?kind filters.
func (h *NotificationHandler) GetReminders(w http.ResponseWriter, r *http.Request) {
	kind := notification.ReminderKind(r.URL.Query().Get("kind"))

	pending := h.dispatcher.Pending()
	reminders := make([]notification.Reminder, 0, len(pending))
	for _, rem := range pending {
		if kind != "" && rem.Kind != kind {
			continue
		}
		reminders = append(reminders, rem)
	}

	respondWithJSON(w, http.StatusOK, notification.ReminderListResponse{
		Reminders:  reminders,
		TotalCount: len(reminders),
	})
}
