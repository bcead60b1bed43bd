package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/services"
	"github.com/b10856039/chat-web-app-backend-render/internal/telemetry"
	"github.com/b10856039/chat-web-app-backend-render/internal/ws"
)

// RoomHandler manages group room lifecycle and membership endpoints.
type RoomHandler struct {
	rooms *services.RoomService
	hub   *ws.Hub
	audit *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(rooms *services.RoomService, hub *ws.Hub, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, hub: hub, audit: audit}
}

// Create opens a new group room with the caller as admin.
func (h *RoomHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("%s", err))
		return
	}

	userID := c.GetInt("userID")
	room, err := h.rooms.CreateGroup(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "room.created",
		fmt.Sprintf("room %d created", room.ID), requestIDFromContext(c), userID)
	respondData(c, http.StatusCreated, gin.H{"room": room})
}

// ListJoined returns the rooms the caller actively belongs to.
func (h *RoomHandler) ListJoined(c *gin.Context) {
	rooms, err := h.rooms.ListJoined(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"rooms": rooms})
}

// ListOpen returns group rooms the caller could join.
func (h *RoomHandler) ListOpen(c *gin.Context) {
	rooms, err := h.rooms.ListOpen(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"rooms": rooms})
}

// Get returns one room visible to the caller.
func (h *RoomHandler) Get(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.rooms.Get(c.Request.Context(), roomID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"room": room})
}

// Join adds the caller to a group room, reactivating a previous
// membership when one exists.
func (h *RoomHandler) Join(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	membership, err := h.rooms.Join(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "room.joined",
		fmt.Sprintf("user %d joined room %d", userID, roomID), requestIDFromContext(c), userID)
	respondData(c, http.StatusOK, gin.H{"membership": membership})
}

// Leave deactivates the caller's membership and drops their live
// subscriptions to the room.
func (h *RoomHandler) Leave(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	membership, err := h.rooms.Leave(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.UnsubscribeUser(userID, roomID, "left room")
	h.audit.Emit(c.Request.Context(), "room.left",
		fmt.Sprintf("user %d left room %d", userID, roomID), requestIDFromContext(c), userID)
	respondData(c, http.StatusOK, gin.H{"membership": membership})
}

// Kick bans a member from a group room. The ban is permanent; a kicked
// user cannot rejoin.
func (h *RoomHandler) Kick(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		respondError(c, apperr.Invalid("invalid user id"))
		return
	}

	requesterID := c.GetInt("userID")
	membership, err := h.rooms.Kick(c.Request.Context(), roomID, requesterID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.UnsubscribeUser(targetID, roomID, "kicked from room")
	h.audit.Emit(c.Request.Context(), "room.member_kicked",
		fmt.Sprintf("user %d kicked from room %d", targetID, roomID), requestIDFromContext(c), requesterID)
	respondData(c, http.StatusOK, gin.H{"membership": membership})
}

// Rename updates a room's name. Creator only.
func (h *RoomHandler) Rename(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("%s", err))
		return
	}

	if err := h.rooms.Rename(c.Request.Context(), roomID, c.GetInt("userID"), req.Name); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

// Delete soft deletes a group room and tears down its broadcast group.
func (h *RoomHandler) Delete(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if err := h.rooms.Delete(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.DropRoom(roomID, "room deleted")
	h.audit.Emit(c.Request.Context(), "room.deleted",
		fmt.Sprintf("room %d deleted", roomID), requestIDFromContext(c), userID)
	respondNoContent(c)
}

// Members lists a room's memberships for an active member.
func (h *RoomHandler) Members(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	members, err := h.rooms.Members(c.Request.Context(), roomID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"members": members})
}

func roomIDParam(c *gin.Context) (int, bool) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		respondError(c, apperr.Invalid("invalid room id"))
		return 0, false
	}
	return roomID, true
}
