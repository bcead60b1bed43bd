package models

import (
	"database/sql"
	"time"
)

// RoomType distinguishes friendship-backed private rooms from group
// rooms that users join and leave explicitly.
type RoomType int

const (
	RoomPrivate RoomType = iota
	RoomGroup
)

// MemberRole is the closed set of membership roles.
type MemberRole int

const (
	RoleAdmin MemberRole = iota
	RoleMember
)

// ChatRoom is a room row. A private room always references the
// accepted friendship that created it; a group room never does.
type ChatRoom struct {
	ID           int           `db:"id" json:"id"`
	Name         string        `db:"name" json:"name,omitempty"`
	RoomType     RoomType      `db:"room_type" json:"room_type"`
	CreatorID    int           `db:"creator_id" json:"creator_id"`
	FriendshipID sql.NullInt64 `db:"friendship_id" json:"friendship_id,omitempty"`
	IsDeleted    bool          `db:"is_deleted" json:"-"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Membership binds one user to one room. Composite key (UserID,
// RoomID). IsBanned implies !IsActive and is terminal: no later
// transition may clear it.
type Membership struct {
	UserID      int          `db:"user_id" json:"user_id"`
	RoomID      int          `db:"room_id" json:"room_id"`
	Role        MemberRole   `db:"role" json:"role"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	IsBanned    bool         `db:"is_banned" json:"is_banned"`
	KickoutTime sql.NullTime `db:"kickout_time" json:"kickout_time,omitempty"`
	JoinedAt    time.Time    `db:"joined_at" json:"joined_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// CanSend reports whether the membership authorizes sending into the
// room right now.
func (m Membership) CanSend() bool {
	return m.IsActive && !m.IsBanned
}
