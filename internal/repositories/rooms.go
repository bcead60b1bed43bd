package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
)

// RoomRepository abstracts room and membership persistence. Membership
// transitions are compare-and-set on the flags they leave behind, so a
// concurrent kick and leave on the same row settle on one final state.
type RoomRepository interface {
	CreateGroupRoom(ctx context.Context, creatorID int, name string) (models.ChatRoom, error)
	GetRoom(ctx context.Context, roomID int) (models.ChatRoom, error)
	UpdateRoomName(ctx context.Context, roomID int, name string) error
	SoftDeleteRoom(ctx context.Context, roomID int) error
	ListRoomsForUser(ctx context.Context, userID int) ([]models.ChatRoom, error)
	ListOpenGroupRooms(ctx context.Context, userID int) ([]models.ChatRoom, error)

	GetMembership(ctx context.Context, roomID, userID int) (models.Membership, error)
	InsertMember(ctx context.Context, roomID, userID int, role models.MemberRole) (models.Membership, error)
	ReactivateMember(ctx context.Context, roomID, userID int) (models.Membership, error)
	DeactivateMember(ctx context.Context, roomID, userID int) (models.Membership, error)
	BanMember(ctx context.Context, roomID, userID int) (models.Membership, error)
	ListMembers(ctx context.Context, roomID int) ([]models.Membership, error)
	ListActiveRoomIDs(ctx context.Context, userID int) ([]int, error)
}

// RoomRepo is the sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `id, name, room_type, creator_id, friendship_id, is_deleted, created_at, updated_at`
const memberColumns = `user_id, room_id, role, is_active, is_banned, kickout_time, joined_at, updated_at`

// CreateGroupRoom creates a group room with its creator as admin
// member in one transaction. Private rooms are created only by
// friendship acceptance.
func (r *RoomRepo) CreateGroupRoom(ctx context.Context, creatorID int, name string) (models.ChatRoom, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatRoom{}, storeErr(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room models.ChatRoom
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO chat_rooms (name, room_type, creator_id)
         VALUES ($1, $2, $3)
         RETURNING `+roomColumns,
		name, models.RoomGroup, creatorID).StructScan(&room)
	if err != nil {
		err = storeErr(err)
		return models.ChatRoom{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO room_members (user_id, room_id, role) VALUES ($1, $2, $3)`,
		creatorID, room.ID, models.RoleAdmin); err != nil {
		err = storeErr(err)
		return models.ChatRoom{}, err
	}

	if err = tx.Commit(); err != nil {
		err = storeErr(err)
		return models.ChatRoom{}, err
	}
	return room, nil
}

// GetRoom fetches a room. Soft-deleted rooms behave as missing.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE id=$1 AND NOT is_deleted`, roomID)
	if isNoRows(err) {
		return models.ChatRoom{}, apperr.NotFound("room %d does not exist", roomID)
	}
	if err != nil {
		return models.ChatRoom{}, storeErr(err)
	}
	return room, nil
}

// UpdateRoomName renames a live room.
func (r *RoomRepo) UpdateRoomName(ctx context.Context, roomID int, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET name=$1, updated_at=NOW() WHERE id=$2 AND NOT is_deleted`,
		name, roomID)
	if err != nil {
		return storeErr(err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFound("room %d does not exist", roomID)
	}
	return nil
}

// SoftDeleteRoom marks a room deleted. Subsequent join/send on it
// resolve to NotFound.
func (r *RoomRepo) SoftDeleteRoom(ctx context.Context, roomID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET is_deleted=TRUE, updated_at=NOW() WHERE id=$1 AND NOT is_deleted`, roomID)
	if err != nil {
		return storeErr(err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFound("room %d does not exist", roomID)
	}
	return nil
}

// ListRoomsForUser returns live rooms where the user is an active,
// non-banned member.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT c.id, c.name, c.room_type, c.creator_id, c.friendship_id, c.is_deleted, c.created_at, c.updated_at
         FROM chat_rooms c
         JOIN room_members m ON m.room_id = c.id
         WHERE m.user_id=$1 AND m.is_active AND NOT m.is_banned AND NOT c.is_deleted
         ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return rooms, nil
}

// ListOpenGroupRooms returns live group rooms the user has not joined.
func (r *RoomRepo) ListOpenGroupRooms(ctx context.Context, userID int) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT `+roomColumns+` FROM chat_rooms c
         WHERE c.room_type=$1 AND NOT c.is_deleted
         AND NOT EXISTS (
             SELECT 1 FROM room_members m
             WHERE m.room_id = c.id AND m.user_id = $2 AND m.is_active
         )
         ORDER BY c.created_at DESC`, models.RoomGroup, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return rooms, nil
}

// GetMembership fetches one membership row.
func (r *RoomRepo) GetMembership(ctx context.Context, roomID, userID int) (models.Membership, error) {
	var member models.Membership
	err := r.db.GetContext(ctx, &member,
		`SELECT `+memberColumns+` FROM room_members WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	if isNoRows(err) {
		return models.Membership{}, apperr.NotFound("user %d is not a member of room %d", userID, roomID)
	}
	if err != nil {
		return models.Membership{}, storeErr(err)
	}
	return member, nil
}

// InsertMember adds a first-time member. The composite primary key
// turns a racing duplicate join into Conflict.
func (r *RoomRepo) InsertMember(ctx context.Context, roomID, userID int, role models.MemberRole) (models.Membership, error) {
	var member models.Membership
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO room_members (user_id, room_id, role)
         VALUES ($1, $2, $3)
         RETURNING `+memberColumns,
		userID, roomID, role).StructScan(&member)
	if err != nil {
		return models.Membership{}, storeErr(err)
	}
	return member, nil
}

// ReactivateMember flips an inactive membership back to active.
// Banned rows never match the guard, which keeps the ban terminal even
// under races.
func (r *RoomRepo) ReactivateMember(ctx context.Context, roomID, userID int) (models.Membership, error) {
	var member models.Membership
	err := r.db.QueryRowxContext(ctx,
		`UPDATE room_members SET is_active=TRUE, updated_at=NOW()
         WHERE room_id=$1 AND user_id=$2 AND NOT is_active AND NOT is_banned
         RETURNING `+memberColumns,
		roomID, userID).StructScan(&member)
	if isNoRows(err) {
		return models.Membership{}, apperr.Conflict("membership of user %d in room %d cannot be reactivated", userID, roomID)
	}
	if err != nil {
		return models.Membership{}, storeErr(err)
	}
	return member, nil
}

// DeactivateMember records a voluntary leave.
func (r *RoomRepo) DeactivateMember(ctx context.Context, roomID, userID int) (models.Membership, error) {
	var member models.Membership
	err := r.db.QueryRowxContext(ctx,
		`UPDATE room_members SET is_active=FALSE, updated_at=NOW()
         WHERE room_id=$1 AND user_id=$2 AND is_active AND NOT is_banned
         RETURNING `+memberColumns,
		roomID, userID).StructScan(&member)
	if isNoRows(err) {
		return models.Membership{}, apperr.Conflict("user %d is not an active member of room %d", userID, roomID)
	}
	if err != nil {
		return models.Membership{}, storeErr(err)
	}
	return member, nil
}

// BanMember deactivates and permanently bans a member, stamping the
// kickout time. Re-banning an already banned row loses the guard and
// returns Conflict.
func (r *RoomRepo) BanMember(ctx context.Context, roomID, userID int) (models.Membership, error) {
	var member models.Membership
	err := r.db.QueryRowxContext(ctx,
		`UPDATE room_members SET is_active=FALSE, is_banned=TRUE, kickout_time=NOW(), updated_at=NOW()
         WHERE room_id=$1 AND user_id=$2 AND NOT is_banned
         RETURNING `+memberColumns,
		roomID, userID).StructScan(&member)
	if isNoRows(err) {
		return models.Membership{}, apperr.Conflict("user %d is already banned from room %d", userID, roomID)
	}
	if err != nil {
		return models.Membership{}, storeErr(err)
	}
	return member, nil
}

// ListMembers returns all membership rows of a room.
func (r *RoomRepo) ListMembers(ctx context.Context, roomID int) ([]models.Membership, error) {
	var members []models.Membership
	err := r.db.SelectContext(ctx, &members,
		`SELECT `+memberColumns+` FROM room_members WHERE room_id=$1 ORDER BY joined_at`, roomID)
	if err != nil {
		return nil, storeErr(err)
	}
	return members, nil
}

// ListActiveRoomIDs returns ids of live rooms where the user is active
// and not banned. Used by joinAllRooms resynchronization.
func (r *RoomRepo) ListActiveRoomIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT m.room_id FROM room_members m
         JOIN chat_rooms c ON c.id = m.room_id
         WHERE m.user_id=$1 AND m.is_active AND NOT m.is_banned AND NOT c.is_deleted
         ORDER BY m.room_id`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}
