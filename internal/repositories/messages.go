package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
)

// MessageRepository is the append-only message log.
type MessageRepository interface {
	Append(ctx context.Context, roomID, userID int, content string) (models.Message, error)
	ListForRoom(ctx context.Context, roomID int) ([]models.Message, error)
	SoftDelete(ctx context.Context, messageID, userID int) error
}

// MessageRepo is the sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, room_id, user_id, content, is_deleted, sent_at, updated_at`

// Append stores one message. The message is durable once this
// returns; delivery failures downstream do not undo it.
func (r *MessageRepo) Append(ctx context.Context, roomID, userID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, user_id, content)
         VALUES ($1, $2, $3)
         RETURNING `+messageColumns,
		roomID, userID, content).StructScan(&msg)
	if err != nil {
		return models.Message{}, storeErr(err)
	}
	return msg, nil
}

// ListForRoom returns the room history in log order: sent_at with id
// as tie breaker. Soft-deleted messages are excluded.
func (r *MessageRepo) ListForRoom(ctx context.Context, roomID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE room_id=$1 AND NOT is_deleted
         ORDER BY sent_at ASC, id ASC`, roomID)
	if err != nil {
		return nil, storeErr(err)
	}
	return msgs, nil
}

// SoftDelete marks a message deleted. Sender only.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted=TRUE, updated_at=NOW() WHERE id=$1 AND user_id=$2 AND NOT is_deleted`,
		messageID, userID)
	if err != nil {
		return storeErr(err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFound("message %d does not exist", messageID)
	}
	return nil
}
