package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
)

// FriendshipRepository abstracts friendship persistence. Transitions
// are compare-and-set on the current status, so two racing mutations
// of one row resolve to exactly one winner.
type FriendshipRepository interface {
	Create(ctx context.Context, requesterID, receiverID int) (models.Friendship, error)
	GetByID(ctx context.Context, friendshipID int) (models.Friendship, error)
	GetByPair(ctx context.Context, userA, userB int) (models.Friendship, error)
	ListForUser(ctx context.Context, userID int) ([]models.FriendView, error)
	CompareAndSetStatus(ctx context.Context, friendshipID int, from, to models.FriendshipStatus) (models.Friendship, error)
	Accept(ctx context.Context, friendshipID int) (models.Friendship, models.ChatRoom, error)
	Unfriend(ctx context.Context, friendshipID int) (models.Friendship, error)
}

// FriendshipRepo is the sqlx implementation of FriendshipRepository.
type FriendshipRepo struct {
	db *sqlx.DB
}

// NewFriendshipRepo constructs a FriendshipRepo.
func NewFriendshipRepo(db *sqlx.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

const friendshipColumns = `id, requester_id, receiver_id, status, created_at, updated_at`

// Create inserts a pending request. The unique constraint on
// (requester_id, receiver_id) backs up the service-level pair check.
func (r *FriendshipRepo) Create(ctx context.Context, requesterID, receiverID int) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO friendships (requester_id, receiver_id, status)
         VALUES ($1, $2, $3)
         RETURNING `+friendshipColumns,
		requesterID, receiverID, models.FriendshipPending).StructScan(&friendship)
	if err != nil {
		return models.Friendship{}, storeErr(err)
	}
	return friendship, nil
}

// GetByID fetches a friendship row.
func (r *FriendshipRepo) GetByID(ctx context.Context, friendshipID int) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.GetContext(ctx, &friendship,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id=$1`, friendshipID)
	if isNoRows(err) {
		return models.Friendship{}, apperr.NotFound("friendship %d does not exist", friendshipID)
	}
	if err != nil {
		return models.Friendship{}, storeErr(err)
	}
	return friendship, nil
}

// GetByPair finds the relationship between two users regardless of who
// requested it.
func (r *FriendshipRepo) GetByPair(ctx context.Context, userA, userB int) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.GetContext(ctx, &friendship,
		`SELECT `+friendshipColumns+` FROM friendships
         WHERE (requester_id=$1 AND receiver_id=$2) OR (requester_id=$2 AND receiver_id=$1)`,
		userA, userB)
	if isNoRows(err) {
		return models.Friendship{}, apperr.NotFound("no relationship between users %d and %d", userA, userB)
	}
	if err != nil {
		return models.Friendship{}, storeErr(err)
	}
	return friendship, nil
}

// ListForUser returns the friend list view: accepted friendships plus
// incoming pendings. Own outgoing pendings and rejected rows are
// excluded.
func (r *FriendshipRepo) ListForUser(ctx context.Context, userID int) ([]models.FriendView, error) {
	query := `SELECT f.id,
               CASE WHEN f.requester_id = $1 THEN f.receiver_id ELSE f.requester_id END AS friend_id,
               u.username, u.display_name, f.status,
               (f.receiver_id = $1) AS incoming,
               f.updated_at
        FROM friendships f
        JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.receiver_id ELSE f.requester_id END
        WHERE (f.requester_id = $1 OR f.receiver_id = $1)
          AND f.status <> $2
          AND NOT (f.status = $3 AND f.requester_id = $1)
        ORDER BY f.updated_at DESC`
	var views []models.FriendView
	if err := r.db.SelectContext(ctx, &views, query, userID, models.FriendshipRejected, models.FriendshipPending); err != nil {
		return nil, storeErr(err)
	}
	return views, nil
}

// CompareAndSetStatus transitions from -> to and returns the updated
// row. A lost race (row no longer in `from`) surfaces as Conflict.
func (r *FriendshipRepo) CompareAndSetStatus(ctx context.Context, friendshipID int, from, to models.FriendshipStatus) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.QueryRowxContext(ctx,
		`UPDATE friendships SET status=$1, updated_at=NOW()
         WHERE id=$2 AND status=$3
         RETURNING `+friendshipColumns,
		to, friendshipID, from).StructScan(&friendship)
	if isNoRows(err) {
		return models.Friendship{}, apperr.Conflict("friendship %d is no longer %s", friendshipID, from)
	}
	if err != nil {
		return models.Friendship{}, storeErr(err)
	}
	return friendship, nil
}

// Accept atomically flips a pending friendship to accepted, creates
// the backing private room, and inserts both memberships with the
// requester as admin. A second accept of the same row loses the
// compare-and-set and gets Conflict.
func (r *FriendshipRepo) Accept(ctx context.Context, friendshipID int) (models.Friendship, models.ChatRoom, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Friendship{}, models.ChatRoom{}, storeErr(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var friendship models.Friendship
	err = tx.QueryRowxContext(ctx,
		`UPDATE friendships SET status=$1, updated_at=NOW()
         WHERE id=$2 AND status=$3
         RETURNING `+friendshipColumns,
		models.FriendshipAccepted, friendshipID, models.FriendshipPending).StructScan(&friendship)
	if isNoRows(err) {
		err = apperr.Conflict("friendship %d is not pending", friendshipID)
		return models.Friendship{}, models.ChatRoom{}, err
	}
	if err != nil {
		err = storeErr(err)
		return models.Friendship{}, models.ChatRoom{}, err
	}

	var room models.ChatRoom
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO chat_rooms (room_type, creator_id, friendship_id)
         VALUES ($1, $2, $3)
         RETURNING id, name, room_type, creator_id, friendship_id, is_deleted, created_at, updated_at`,
		models.RoomPrivate, friendship.RequesterID, friendship.ID).StructScan(&room)
	if err != nil {
		err = storeErr(err)
		return models.Friendship{}, models.ChatRoom{}, err
	}

	members := []struct {
		userID int
		role   models.MemberRole
	}{
		{friendship.RequesterID, models.RoleAdmin},
		{friendship.ReceiverID, models.RoleMember},
	}
	for _, m := range members {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO room_members (user_id, room_id, role) VALUES ($1, $2, $3)`,
			m.userID, room.ID, m.role); err != nil {
			err = storeErr(err)
			return models.Friendship{}, models.ChatRoom{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = storeErr(err)
		return models.Friendship{}, models.ChatRoom{}, err
	}
	return friendship, room, nil
}

// Unfriend atomically flips an accepted friendship to rejected and
// soft-deletes the backing private room. Memberships are left as-is.
func (r *FriendshipRepo) Unfriend(ctx context.Context, friendshipID int) (models.Friendship, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Friendship{}, storeErr(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var friendship models.Friendship
	err = tx.QueryRowxContext(ctx,
		`UPDATE friendships SET status=$1, updated_at=NOW()
         WHERE id=$2 AND status=$3
         RETURNING `+friendshipColumns,
		models.FriendshipRejected, friendshipID, models.FriendshipAccepted).StructScan(&friendship)
	if isNoRows(err) {
		err = apperr.Conflict("friendship %d is not accepted", friendshipID)
		return models.Friendship{}, err
	}
	if err != nil {
		err = storeErr(err)
		return models.Friendship{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE chat_rooms SET is_deleted=TRUE, updated_at=NOW() WHERE friendship_id=$1`,
		friendshipID); err != nil {
		err = storeErr(err)
		return models.Friendship{}, err
	}

	if err = tx.Commit(); err != nil {
		err = storeErr(err)
		return models.Friendship{}, err
	}
	return friendship, nil
}
