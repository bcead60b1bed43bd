package models

import "time"

// FriendshipStatus is the closed set of friendship states.
type FriendshipStatus int

const (
	FriendshipPending FriendshipStatus = iota
	FriendshipAccepted
	FriendshipRejected
)

func (s FriendshipStatus) String() string {
	switch s {
	case FriendshipPending:
		return "pending"
	case FriendshipAccepted:
		return "accepted"
	case FriendshipRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Friendship links a requester to a receiver. At most one row exists
// per unordered user pair; lookups must check both orderings.
type Friendship struct {
	ID          int              `db:"id" json:"id"`
	RequesterID int              `db:"requester_id" json:"requester_id"`
	ReceiverID  int              `db:"receiver_id" json:"receiver_id"`
	Status      FriendshipStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// OtherUser returns the counterpart of userID in the friendship.
func (f Friendship) OtherUser(userID int) int {
	if f.RequesterID == userID {
		return f.ReceiverID
	}
	return f.RequesterID
}

// FriendView is the per-user projection of a friendship used by the
// friend-list endpoint.
type FriendView struct {
	FriendshipID int              `db:"id" json:"friendship_id"`
	FriendID     int              `db:"friend_id" json:"friend_id"`
	Username     string           `db:"username" json:"username"`
	DisplayName  string           `db:"display_name" json:"display_name"`
	Status       FriendshipStatus `db:"status" json:"status"`
	Incoming     bool             `db:"incoming" json:"incoming"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}
