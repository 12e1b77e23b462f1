package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/chore"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/websocket"
)

type ChoreHandler struct {
	engine *chore.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewChoreHandler(engine *chore.Engine, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{engine: engine, hub: hub, logger: logger}
}

// Get handles GET /api/chore?choreId=...
func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	c, err := h.engine.Get(r.Context(), ac.Household, r.URL.Query().Get("choreId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

// List handles GET /api/chore/all.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	chores, err := h.engine.List(r.Context(), ac.Household)
	if err != nil {
		writeError(w, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chores": chores})
}

type createChoreRequest struct {
	Title string `json:"title"`
}

// Create handles POST /api/chore.
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req createChoreRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.engine.Create(r.Context(), ac.Household, ac.User, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreCreated, nil)
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

type updateChoreRequest struct {
	ChoreID     string  `json:"choreId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DateDue     *string `json:"dateDue"`
}

// Update handles PATCH /api/chore.
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req updateChoreRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	params := chore.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		params.Priority = &p
	}
	if req.DateDue != nil && *req.DateDue != "" {
		due, err := parseDate(*req.DateDue)
		if err != nil {
			writeError(w, err)
			return
		}
		params.DateDue = &due
	}

	c, err := h.engine.Update(r.Context(), ac.Household, ac.User, req.ChoreID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreUpdated, map[string]any{"choreId": c.ID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

type choreIDRequest struct {
	ChoreID string `json:"choreId"`
}

// AssignRandom handles PATCH /api/chore/assign/random.
func (h *ChoreHandler) AssignRandom(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req choreIDRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.engine.AssignRandom(r.Context(), ac.Household, req.ChoreID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreAssignedRandom, map[string]any{"choreId": c.ID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

// AssignSelf handles PATCH /api/chore/assign/self.
func (h *ChoreHandler) AssignSelf(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req choreIDRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.engine.AssignSelf(r.Context(), ac.Household, ac.User, req.ChoreID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreAssignedSelf, map[string]any{"choreId": c.ID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

// RequestAssignment handles PATCH /api/chore/assign/request.
func (h *ChoreHandler) RequestAssignment(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req choreIDRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.engine.RequestAssignment(r.Context(), ac.Household, ac.User, req.ChoreID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreAssignedRequest, map[string]any{"choreId": c.ID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

type respondRequest struct {
	ChoreID  string `json:"choreId"`
	Response string `json:"assigneeRequestResponse"`
}

// RespondToRequest handles PATCH /api/chore/assign/request/respond.
func (h *ChoreHandler) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req respondRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.engine.RespondToRequest(r.Context(), ac.Household, ac.User, req.ChoreID, req.Response)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreAssignedResponse, map[string]any{"choreId": c.ID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

// Complete handles PATCH /api/chore/complete.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req choreIDRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.engine.Complete(r.Context(), ac.Household, ac.User, req.ChoreID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreCompleted, map[string]any{"choreId": c.ID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

type declineRequest struct {
	ChoreID string `json:"choreId"`
	Reason  string `json:"reason"`
}

// DeclineAssignment handles PATCH /api/chore/assign/random/decline.
func (h *ChoreHandler) DeclineAssignment(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req declineRequest
	if err := decode(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.engine.DeclineAssignment(r.Context(), ac.Household, ac.User, req.ChoreID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreAssignmentDecline, map[string]any{"choreId": c.ID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": c})
}

// Delete handles DELETE /api/chore?choreId=...
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	choreID := r.URL.Query().Get("choreId")
	if err := h.engine.Delete(r.Context(), ac.Household, choreID); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ac.Household.ID, websocket.EventChoreDeleted, map[string]any{"choreId": choreID})
	writeJSON(w, http.StatusOK, map[string]any{"chore": "Chore deleted successfully"})
}

// parseDate accepts RFC 3339 timestamps or bare yyyy-mm-dd dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validationf(`"dateDue" must be a valid date`)
	}
	return t, nil
}
