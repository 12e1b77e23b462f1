package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/notify"
	"github.com/dukerupert/hearth/internal/websocket"
)

type NotificationHandler struct {
	notify *notify.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewNotificationHandler(notifySvc *notify.Service, hub *websocket.Hub, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notify: notifySvc, hub: hub, logger: logger}
}

// List handles GET /api/notification.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	notifications, err := h.notify.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// Clear handles DELETE /api/notification.
func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := h.notify.ClearAll(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":   false,
		"message": "Notifications deleted successfully",
	})
}

type notificationIDRequest struct {
	NotificationID string `json:"notificationId"`
}

// MarkRead handles PATCH /api/notification/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req notificationIDRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	notifications, err := h.notify.MarkRead(r.Context(), userID, req.NotificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// Support handles PATCH /api/notification/support.
func (h *NotificationHandler) Support(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req notificationIDRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	notifications, err := h.notify.Support(r.Context(), ac.User.ID, req.NotificationID)
	if err != nil {
		writeError(w, err)
		return
	}

	if ac.Household != nil {
		h.hub.Broadcast(ac.Household.ID, websocket.EventNotificationSupported, nil)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}
