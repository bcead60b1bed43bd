package models

import "time"

// UserState mirrors the presence flag stored on the account.
type UserState int

const (
	UserOffline UserState = iota
	UserOnline
	UserBusy
	UserHidden
)

// User is an account row. Accounts are never hard-deleted, only
// flagged via IsDeleted.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	State        UserState `db:"state" json:"state"`
	Role         int       `db:"role" json:"role"`
	IsDeleted    bool      `db:"is_deleted" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the public projection returned by search endpoints.
type UserSummary struct {
	ID          int    `db:"id" json:"id"`
	Username    string `db:"username" json:"username"`
	DisplayName string `db:"display_name" json:"display_name"`
}
