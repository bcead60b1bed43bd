package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/services"
)

// MessageHandler manages the HTTP message endpoints. Delivery to live
// connections happens through the chat service's broadcaster.
type MessageHandler struct {
	chat *services.ChatService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(chat *services.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

// History returns a room's messages in log order.
func (h *MessageHandler) History(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	messages, err := h.chat.History(c.Request.Context(), roomID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"messages": messages})
}

// Post appends a message to the room log and fans it out.
func (h *MessageHandler) Post(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("%s", err))
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), roomID, c.GetInt("userID"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"message": msg})
}

// Delete soft deletes the caller's own message.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		respondError(c, apperr.Invalid("invalid message id"))
		return
	}

	if err := h.chat.DeleteMessage(c.Request.Context(), messageID, c.GetInt("userID")); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}
