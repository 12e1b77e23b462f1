package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/store"
)

type AuthHandler struct {
	identity      *identity.Service
	notifications *store.NotificationStore
	logger        *slog.Logger
}

func NewAuthHandler(identitySvc *identity.Service, notifications *store.NotificationStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identitySvc, notifications: notifications, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/user/register. The token is returned in the
// auth-token header alongside the body.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, token, err := h.identity.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("auth-token", token)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user.ID,
		"household": user.HouseholdID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, token, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("auth-token", token)
	writeJSON(w, http.StatusOK, map[string]any{"household": user.HouseholdID})
}

// Me handles GET /api/user and returns the caller's profile, including their
// notification ID list.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	user := ac.User

	notificationIDs, err := h.notifications.IDsForUser(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if notificationIDs == nil {
		notificationIDs = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"householdId":   user.HouseholdID,
			"notifications": notificationIDs,
			"profilePhoto":  user.ProfilePhoto,
		},
	})
}
