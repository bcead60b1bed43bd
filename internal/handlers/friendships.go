package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/observability"
	"github.com/b10856039/chat-web-app-backend-render/internal/services"
	"github.com/b10856039/chat-web-app-backend-render/internal/telemetry"
)

// FriendshipHandler manages friend request endpoints.
type FriendshipHandler struct {
	friendships *services.FriendshipService
	audit       *telemetry.AuditEmitter
}

// NewFriendshipHandler builds a FriendshipHandler.
func NewFriendshipHandler(friendships *services.FriendshipService, audit *telemetry.AuditEmitter) *FriendshipHandler {
	return &FriendshipHandler{friendships: friendships, audit: audit}
}

// List returns accepted friends plus incoming pending requests.
func (h *FriendshipHandler) List(c *gin.Context) {
	friends, err := h.friendships.List(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"friends": friends})
}

// SearchUsers returns users matching the query that the caller is not
// already friends with.
func (h *FriendshipHandler) SearchUsers(c *gin.Context) {
	users, err := h.friendships.SearchNonFriends(c.Request.Context(), c.GetInt("userID"), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"users": users})
}

// Request sends or resends a friend request.
func (h *FriendshipHandler) Request(c *gin.Context) {
	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("%s", err))
		return
	}

	userID := c.GetInt("userID")
	friendship, err := h.friendships.Request(c.Request.Context(), userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	requestID := requestIDFromContext(c)
	h.audit.Emit(c.Request.Context(), "friendship.requested",
		fmt.Sprintf("friend request to user %d", req.UserID), requestID, userID)
	_ = observability.PublishEvent(c.Request.Context(), "friendship.requested",
		observability.EventEnvelope{EventType: "friendship", EventName: "requested", Payload: friendship},
		observability.BuildHeaders(requestID, ""))

	respondData(c, http.StatusCreated, gin.H{"friendship": friendship})
}

// Accept approves a pending request addressed to the caller and opens
// the private room for the pair.
func (h *FriendshipHandler) Accept(c *gin.Context) {
	friendshipID, err := strconv.Atoi(c.Param("friendship_id"))
	if err != nil {
		respondError(c, apperr.Invalid("invalid friendship id"))
		return
	}

	userID := c.GetInt("userID")
	friendship, room, err := h.friendships.Accept(c.Request.Context(), userID, friendshipID)
	if err != nil {
		respondError(c, err)
		return
	}

	requestID := requestIDFromContext(c)
	h.audit.Emit(c.Request.Context(), "friendship.accepted",
		fmt.Sprintf("friendship %d accepted", friendshipID), requestID, userID)
	_ = observability.PublishEvent(c.Request.Context(), "friendship.accepted",
		observability.EventEnvelope{EventType: "friendship", EventName: "accepted", Payload: friendship},
		observability.BuildHeaders(requestID, ""))

	respondData(c, http.StatusOK, gin.H{"friendship": friendship, "room": room})
}

// Decline rejects a pending request addressed to the caller.
func (h *FriendshipHandler) Decline(c *gin.Context) {
	friendshipID, err := strconv.Atoi(c.Param("friendship_id"))
	if err != nil {
		respondError(c, apperr.Invalid("invalid friendship id"))
		return
	}

	userID := c.GetInt("userID")
	friendship, err := h.friendships.Decline(c.Request.Context(), userID, friendshipID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "friendship.declined",
		fmt.Sprintf("friendship %d declined", friendshipID), requestIDFromContext(c), userID)
	respondData(c, http.StatusOK, gin.H{"friendship": friendship})
}

// Unfriend dissolves an accepted friendship and retires its private room.
func (h *FriendshipHandler) Unfriend(c *gin.Context) {
	friendshipID, err := strconv.Atoi(c.Param("friendship_id"))
	if err != nil {
		respondError(c, apperr.Invalid("invalid friendship id"))
		return
	}

	userID := c.GetInt("userID")
	friendship, err := h.friendships.Unfriend(c.Request.Context(), userID, friendshipID)
	if err != nil {
		respondError(c, err)
		return
	}

	requestID := requestIDFromContext(c)
	h.audit.Emit(c.Request.Context(), "friendship.removed",
		fmt.Sprintf("friendship %d removed", friendshipID), requestID, userID)
	_ = observability.PublishEvent(c.Request.Context(), "friendship.removed",
		observability.EventEnvelope{EventType: "friendship", EventName: "removed", Payload: friendship},
		observability.BuildHeaders(requestID, ""))

	respondData(c, http.StatusOK, gin.H{"friendship": friendship})
}
