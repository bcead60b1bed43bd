package services

import (
	"context"
	"strings"
	"sync"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
	"github.com/b10856039/chat-web-app-backend-render/internal/repositories"
)

// Broadcaster delivers a persisted message to every connection
// subscribed to the room. Implemented by the websocket hub.
type Broadcaster interface {
	BroadcastMessage(roomID int, msg models.Message)
}

// ChatService owns the send path and the message log. Sends into one
// room are serialized so fan-out order always matches log order;
// different rooms never contend.
type ChatService struct {
	rooms       repositories.RoomRepository
	messages    repositories.MessageRepository
	broadcaster Broadcaster

	mu        sync.Mutex
	roomLocks map[int]*sync.Mutex
}

// NewChatService constructs a ChatService.
func NewChatService(rooms repositories.RoomRepository, messages repositories.MessageRepository, broadcaster Broadcaster) *ChatService {
	return &ChatService{
		rooms:       rooms,
		messages:    messages,
		broadcaster: broadcaster,
		roomLocks:   make(map[int]*sync.Mutex),
	}
}

func (s *ChatService) roomLock(roomID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomID] = lock
	}
	return lock
}

// Send validates the sender against the membership store, appends the
// message, and fans it out to every subscribed connection including
// the sender's. The membership check always hits the store; connection
// state is never trusted for authorization. Once the append succeeds
// the message is durable regardless of what happens to any connection.
func (s *ChatService) Send(ctx context.Context, roomID, userID int, content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, apperr.Invalid("message content is required")
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return models.Message{}, err
	}
	member, err := s.rooms.GetMembership(ctx, roomID, userID)
	if err != nil {
		return models.Message{}, apperr.Forbidden("not a member of room %d", roomID)
	}
	if !member.CanSend() {
		return models.Message{}, apperr.Forbidden("not an active member of room %d", roomID)
	}

	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := s.messages.Append(ctx, roomID, userID, content)
	if err != nil {
		return models.Message{}, err
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(roomID, msg)
	}
	return msg, nil
}

// History returns the room's message log for an active member.
func (s *ChatService) History(ctx context.Context, roomID, userID int) ([]models.Message, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	member, err := s.rooms.GetMembership(ctx, roomID, userID)
	if err != nil || !member.CanSend() {
		return nil, apperr.Forbidden("not a member of room %d", roomID)
	}
	return s.messages.ListForRoom(ctx, roomID)
}

// DeleteMessage soft-deletes one of the caller's own messages.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID int) error {
	return s.messages.SoftDelete(ctx, messageID, userID)
}
