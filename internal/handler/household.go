package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/websocket"
)

type HouseholdHandler struct {
	service *household.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewHouseholdHandler(service *household.Service, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{service: service, hub: hub, logger: logger}
}

// Get handles GET /api/household.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	view, err := h.service.Get(r.Context(), ac.Household)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"household": view})
}

type createHouseholdRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/household/create.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req createHouseholdRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), ac.User, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"householdId": created.ID})
}

type joinHouseholdRequest struct {
	HouseholdID string `json:"householdId"`
}

// Join handles PATCH /api/household/join.
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req joinHouseholdRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	joined, err := h.service.Join(r.Context(), ac.User, req.HouseholdID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(joined.ID, websocket.EventUserJoinedHousehold, nil)
	writeJSON(w, http.StatusOK, map[string]any{"householdId": joined.ID})
}

// Leave handles PATCH /api/household/leave.
func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.service.Leave(r.Context(), ac.User, ac.Household); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventUserLeftHousehold, nil)
	writeJSON(w, http.StatusOK, map[string]any{"householdId": nil})
}

type inviteRequest struct {
	Email string `json:"email"`
}

// Invite handles POST /api/household/invite.
func (h *HouseholdHandler) Invite(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req inviteRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.service.Invite(r.Context(), ac.User, ac.Household, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":   false,
		"message": "An invitation was successfully sent",
	})
}

type reorderChoresRequest struct {
	Chores []string `json:"chores"`
}

// ReorderChores handles PATCH /api/household/chores.
func (h *HouseholdHandler) ReorderChores(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req reorderChoresRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.service.ReorderChores(r.Context(), ac.Household, req.Chores); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoresListUpdated, nil)
	writeJSON(w, http.StatusOK, map[string]any{"chores": req.Chores})
}

type profilePhotoRequest struct {
	ProfilePhoto int `json:"profilePhoto"`
}

// UpdateProfilePhoto handles PATCH /api/household/profile/photo.
func (h *HouseholdHandler) UpdateProfilePhoto(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req profilePhotoRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.service.UpdateProfilePhoto(r.Context(), ac.User, req.ProfilePhoto); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventProfilePhotoUpdated, nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"error":   false,
		"message": "Profile photo successfully updated",
	})
}
