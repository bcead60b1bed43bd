// Package ws implements the live connection registry and broadcast
// engine. Each connection owns its full set of subscribed room ids and
// a buffered outbound channel drained by a single writer goroutine;
// request goroutines never write to the socket directly.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/b10856039/chat-web-app-backend-render/internal/models"
	"github.com/b10856039/chat-web-app-backend-render/internal/observability"
)

// Hub tracks live connections and their per-room broadcast groups.
// Subscription sets are a cache over persisted memberships and are
// never consulted for permission decisions; the send path re-validates
// against the store.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[int]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log,
		clients: make(map[*Client]struct{}),
		rooms:   make(map[int]map[*Client]struct{}),
	}
}

// Register adds a connection with an empty subscription set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes the connection and every one of its
// subscriptions, however many rooms it joined, then closes its
// outbound channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for roomID := range c.rooms {
		h.dropFromRoom(c, roomID)
	}
	c.rooms = make(map[int]struct{})
	delete(h.clients, c)
	h.mu.Unlock()

	c.closeSend()
}

// Subscribe adds the connection to a room's broadcast group. Safe to
// call repeatedly; persisted membership is the caller's concern.
func (h *Hub) Subscribe(c *Client, roomID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

// Unsubscribe removes the connection from one room's group.
func (h *Hub) Unsubscribe(c *Client, roomID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromRoom(c, roomID)
	delete(c.rooms, roomID)
}

// dropFromRoom must be called with h.mu held.
func (h *Hub) dropFromRoom(c *Client, roomID int) {
	if group, ok := h.rooms[roomID]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// UnsubscribeUser removes every connection owned by the user from a
// room's broadcast group and tells each one why. Used when the user is
// kicked or leaves over HTTP while still connected.
func (h *Hub) UnsubscribeUser(userID, roomID int, reason string) {
	h.mu.Lock()
	removed := make([]*Client, 0, 2)
	for c := range h.rooms[roomID] {
		if c.UserID == userID {
			removed = append(removed, c)
		}
	}
	for _, c := range removed {
		h.dropFromRoom(c, roomID)
		delete(c.rooms, roomID)
	}
	h.mu.Unlock()

	for _, c := range removed {
		h.SendEvent(c, models.RoomEvent{Type: models.EventRoomLeft, RoomID: roomID, Reason: reason})
	}
}

// DropRoom tears down a room's broadcast group entirely, notifying
// every subscribed connection. Used when the room is deleted.
func (h *Hub) DropRoom(roomID int, reason string) {
	h.mu.Lock()
	group := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		group = append(group, c)
		delete(c.rooms, roomID)
	}
	delete(h.rooms, roomID)
	h.mu.Unlock()

	for _, c := range group {
		h.SendEvent(c, models.RoomEvent{Type: models.EventRoomLeft, RoomID: roomID, Reason: reason})
	}
}

// Subscriptions returns the room ids the connection is subscribed to.
func (h *Hub) Subscriptions(c *Client) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int, 0, len(c.rooms))
	for roomID := range c.rooms {
		ids = append(ids, roomID)
	}
	return ids
}

// BroadcastMessage delivers a persisted message to every connection
// currently subscribed to the room, the sender's included. A
// connection that cannot keep up is dropped rather than allowed to
// stall the room.
func (h *Hub) BroadcastMessage(roomID int, msg models.Message) {
	payload, err := json.Marshal(models.RoomEvent{
		Type:    models.EventMessageReceived,
		RoomID:  roomID,
		Message: &msg,
	})
	if err != nil {
		h.log.Error("marshal room event", zap.Error(err))
		return
	}

	h.mu.RLock()
	group := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		group = append(group, c)
	}
	h.mu.RUnlock()

	observability.IncMessageBroadcast()
	for _, c := range group {
		if !c.enqueue(payload) {
			h.log.Warn("dropping slow connection",
				zap.String("conn_id", c.ID),
				zap.Int("user_id", c.UserID),
				zap.Int("room_id", roomID))
			go c.Close()
		}
	}
}

// SendEvent delivers an event to a single connection, used for
// caller-scoped errors and acknowledgements.
func (h *Hub) SendEvent(c *Client, event models.RoomEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal room event", zap.Error(err))
		return
	}
	if !c.enqueue(payload) {
		go c.Close()
	}
}

// SendError reports a failed operation to the invoking connection
// only; nothing reaches the room's broadcast group.
func (h *Hub) SendError(c *Client, reason string) {
	h.SendEvent(c, models.RoomEvent{Type: models.EventOperationFailed, Reason: reason})
}

// ActiveConnections reports the number of registered connections.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
