package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/auth"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
	"github.com/b10856039/chat-web-app-backend-render/internal/observability"
	"github.com/b10856039/chat-web-app-backend-render/internal/repositories"
	"github.com/b10856039/chat-web-app-backend-render/internal/services"
)

// Command is one RPC-style request on the live channel.
type Command struct {
	Action  string `json:"action"`
	RoomID  int    `json:"room_id,omitempty"`
	UserID  int    `json:"user_id,omitempty"`
	Content string `json:"content,omitempty"`
}

// Live channel actions.
const (
	ActionJoinRoom     = "joinRoom"
	ActionJoinAllRooms = "joinAllRooms"
	ActionLeaveRoom    = "leaveRoom"
	ActionSendMessage  = "sendMessage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades websocket connections and dispatches their
// commands against the membership store and chat service.
type Handler struct {
	hub          *Hub
	rooms        repositories.RoomRepository
	chat         *services.ChatService
	tokens       *auth.Tokens
	log          *zap.Logger
	storeTimeout time.Duration
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub, rooms repositories.RoomRepository, chat *services.ChatService, tokens *auth.Tokens, log *zap.Logger, storeTimeout time.Duration) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: hub, rooms: rooms, chat: chat, tokens: tokens, log: log, storeTimeout: storeTimeout}
}

// Handle authenticates and upgrades the request, then serves the
// connection until it drops.
func (h *Handler) Handle(c *gin.Context) {
	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
	} else if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}

	userID, err := h.tokens.Parse(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"data": nil, "errors": []string{"invalid token"}})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	h.hub.Register(client)
	observability.IncWSActive()
	observability.IncWSEvent("connect")
	h.log.Info("ws connected", zap.String("conn_id", client.ID), zap.Int("user_id", userID))

	go client.WritePump()
	go h.readLoop(client)
}

func (h *Handler) readLoop(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		observability.DecWSActive()
		observability.IncWSEvent("disconnect")
		h.log.Info("ws disconnected",
			zap.String("conn_id", client.ID),
			zap.Int("user_id", client.UserID),
			zap.Duration("duration", time.Since(client.ConnectedAt)))
		client.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd Command
		if err := client.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("error")
			}
			return
		}
		h.dispatch(client, cmd)
	}
}

// dispatch executes one command. Failures are reported to the invoking
// connection only; the room's broadcast group sees nothing.
func (h *Handler) dispatch(client *Client, cmd Command) {
	// The channel identity is the authenticated one; a mismatching
	// user id in the payload is rejected, not honored.
	if cmd.UserID != 0 && cmd.UserID != client.UserID {
		h.hub.SendError(client, "user id does not match the connection")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.storeTimeout)
	defer cancel()

	switch cmd.Action {
	case ActionJoinRoom:
		h.joinRoom(ctx, client, cmd.RoomID)
	case ActionJoinAllRooms:
		h.joinAllRooms(ctx, client)
	case ActionLeaveRoom:
		h.hub.Unsubscribe(client, cmd.RoomID)
		h.hub.SendEvent(client, models.RoomEvent{Type: models.EventRoomLeft, RoomID: cmd.RoomID})
	case ActionSendMessage:
		if _, err := h.chat.Send(ctx, cmd.RoomID, client.UserID, cmd.Content); err != nil {
			observability.IncWSEvent("send_rejected")
			h.hub.SendError(client, apperr.Reason(err))
		}
	default:
		h.hub.SendError(client, "unknown action")
	}
}

// joinRoom validates the caller's persisted membership before adding
// the connection to the room's broadcast group.
func (h *Handler) joinRoom(ctx context.Context, client *Client, roomID int) {
	if _, err := h.rooms.GetRoom(ctx, roomID); err != nil {
		h.hub.SendError(client, apperr.Reason(err))
		return
	}
	member, err := h.rooms.GetMembership(ctx, roomID, client.UserID)
	if err != nil || !member.CanSend() {
		h.hub.SendError(client, "not an active member of the room")
		return
	}
	h.hub.Subscribe(client, roomID)
	h.hub.SendEvent(client, models.RoomEvent{Type: models.EventRoomJoined, RoomID: roomID})
}

// joinAllRooms resubscribes the connection to every room where the
// user holds an active, non-banned membership. Idempotent, so a
// reconnecting client may call it freely.
func (h *Handler) joinAllRooms(ctx context.Context, client *Client) {
	ids, err := h.rooms.ListActiveRoomIDs(ctx, client.UserID)
	if err != nil {
		h.hub.SendError(client, apperr.Reason(err))
		return
	}
	for _, roomID := range ids {
		h.hub.Subscribe(client, roomID)
		h.hub.SendEvent(client, models.RoomEvent{Type: models.EventRoomJoined, RoomID: roomID})
	}
}
