package models

import "time"

// Message is an append-only chat message. Immutable once sent except
// for soft deletion. Room order is (SentAt, ID).
type Message struct {
	ID        int       `db:"id" json:"id"`
	RoomID    int       `db:"room_id" json:"room_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	SentAt    time.Time `db:"sent_at" json:"sent_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomEvent is the envelope pushed over websocket connections.
type RoomEvent struct {
	Type    string   `json:"type"`
	RoomID  int      `json:"room_id,omitempty"`
	Message *Message `json:"message,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// Websocket event types.
const (
	EventMessageReceived = "messageReceived"
	EventOperationFailed = "operationFailed"
	EventRoomJoined      = "roomJoined"
	EventRoomLeft        = "roomLeft"
)
