package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event names broadcast to household clients.
const (
	EventChoreCreated           = "chore-created"
	EventChoreUpdated           = "chore-updated"
	EventChoreCompleted         = "chore-completed"
	EventChoreAssignedRandom    = "chore-assigned-random"
	EventChoreAssignedSelf      = "chore-assigned-self"
	EventChoreAssignedRequest   = "chore-assigned-request"
	EventChoreAssignedResponse  = "chore-assigned-response"
	EventChoreAssignmentDecline = "chore-assignment-declined"
	EventChoreDeleted           = "chore-deleted"
	EventChoresListUpdated      = "chores-list-updated"
	EventUserJoinedHousehold    = "user-joined-household"
	EventUserLeftHousehold      = "user-left-household"
	EventProfilePhotoUpdated    = "profile-photo-updated"
	EventNotificationSupported  = "notification-supported"
)

// Message is a real-time event broadcast to the clients of one household.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Hub maintains the set of active WebSocket clients, grouped by household,
// and broadcasts messages to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to its household's group.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	group, ok := h.clients[c.householdID]
	if !ok {
		group = make(map[*Client]struct{})
		h.clients[c.householdID] = group
	}
	group[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if group, ok := h.clients[c.householdID]; ok {
		if _, ok := group[c]; ok {
			delete(group, c)
			close(c.send)
		}
		if len(group) == 0 {
			delete(h.clients, c.householdID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every client of the given household.
func (h *Hub) Broadcast(householdID, event string, payload any) {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[householdID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients for a household.
func (h *Hub) ClientCount(householdID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[householdID])
}
