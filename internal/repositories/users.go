package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
)

// UserRepository abstracts account persistence.
type UserRepository interface {
	Create(ctx context.Context, username, displayName, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, userID int) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	SearchNonFriends(ctx context.Context, userID int, search string) ([]models.UserSummary, error)
}

// UserRepo is the sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new account.
func (r *UserRepo) Create(ctx context.Context, username, displayName, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, display_name, password_hash)
         VALUES ($1, $2, $3)
         RETURNING id, username, display_name, password_hash, state, role, is_deleted, created_at, updated_at`,
		username, displayName, passwordHash).StructScan(&user)
	if err != nil {
		return models.User{}, storeErr(err)
	}
	return user, nil
}

// GetByID fetches a non-deleted account by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, username, display_name, password_hash, state, role, is_deleted, created_at, updated_at
         FROM users WHERE id=$1 AND NOT is_deleted`, userID)
	if isNoRows(err) {
		return models.User{}, apperr.NotFound("user %d does not exist", userID)
	}
	if err != nil {
		return models.User{}, storeErr(err)
	}
	return user, nil
}

// GetByUsername fetches a non-deleted account by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, username, display_name, password_hash, state, role, is_deleted, created_at, updated_at
         FROM users WHERE username=$1 AND NOT is_deleted`, username)
	if isNoRows(err) {
		return models.User{}, apperr.NotFound("user %q does not exist", username)
	}
	if err != nil {
		return models.User{}, storeErr(err)
	}
	return user, nil
}

// SearchNonFriends lists users that have no accepted friendship with
// userID, optionally filtered by a username substring.
func (r *UserRepo) SearchNonFriends(ctx context.Context, userID int, search string) ([]models.UserSummary, error) {
	query := `SELECT u.id, u.username, u.display_name
        FROM users u
        WHERE u.id <> $1 AND NOT u.is_deleted
        AND NOT EXISTS (
            SELECT 1 FROM friendships f
            WHERE f.status = $2
            AND ((f.requester_id = $1 AND f.receiver_id = u.id)
              OR (f.requester_id = u.id AND f.receiver_id = $1))
        )
        AND ($3 = '' OR u.username ILIKE '%' || $3 || '%')
        ORDER BY u.username`
	var users []models.UserSummary
	if err := r.db.SelectContext(ctx, &users, query, userID, models.FriendshipAccepted, search); err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}
