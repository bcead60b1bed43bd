// Package services holds the domain state machines. Handlers and the
// websocket layer call into these; repositories provide the atomic
// storage primitives they sequence.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
	"github.com/b10856039/chat-web-app-backend-render/internal/repositories"
)

// ResendCooldown is how long a rejected requester must wait before
// sending again.
const ResendCooldown = 24 * time.Hour

// FriendshipService drives the friendship state machine:
// Pending -> Accepted | Rejected, Rejected -> Pending (resend after
// cooldown), Accepted -> Rejected (unfriend).
type FriendshipService struct {
	users       repositories.UserRepository
	friendships repositories.FriendshipRepository
	now         func() time.Time
}

// NewFriendshipService constructs a FriendshipService.
func NewFriendshipService(users repositories.UserRepository, friendships repositories.FriendshipRepository) *FriendshipService {
	return &FriendshipService{users: users, friendships: friendships, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *FriendshipService) WithClock(now func() time.Time) *FriendshipService {
	s.now = now
	return s
}

// Request sends a friend request from requester to receiver. A fresh
// pair gets a new Pending row; a previously rejected pair is resent
// once the cooldown has elapsed.
func (s *FriendshipService) Request(ctx context.Context, requesterID, receiverID int) (models.Friendship, error) {
	if requesterID == receiverID {
		return models.Friendship{}, apperr.Invalid("cannot befriend yourself")
	}
	if _, err := s.users.GetByID(ctx, requesterID); err != nil {
		return models.Friendship{}, err
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return models.Friendship{}, err
	}

	existing, err := s.friendships.GetByPair(ctx, requesterID, receiverID)
	switch {
	case err == nil:
		return s.resend(ctx, existing)
	case errors.Is(err, apperr.ErrNotFound):
		// no prior relationship, fall through to create
	default:
		return models.Friendship{}, err
	}

	return s.friendships.Create(ctx, requesterID, receiverID)
}

// resend handles a Request against an existing row. Only the Rejected
// state allows a new attempt, and only after the cooldown.
func (s *FriendshipService) resend(ctx context.Context, existing models.Friendship) (models.Friendship, error) {
	switch existing.Status {
	case models.FriendshipPending:
		return models.Friendship{}, apperr.Conflict("friend request already sent")
	case models.FriendshipAccepted:
		return models.Friendship{}, apperr.Conflict("users are already friends")
	case models.FriendshipRejected:
		elapsed := s.now().Sub(existing.UpdatedAt)
		if elapsed < ResendCooldown {
			wait := (ResendCooldown - elapsed).Round(time.Minute)
			return models.Friendship{}, apperr.RateLimited("request was rejected recently, retry in %s", wait)
		}
		return s.friendships.CompareAndSetStatus(ctx, existing.ID, models.FriendshipRejected, models.FriendshipPending)
	default:
		return models.Friendship{}, apperr.Fatal("friendship %d has unknown status %d", existing.ID, existing.Status)
	}
}

// Accept lets the receiver accept a pending request. Acceptance also
// creates the private room with both users as active members, the
// requester holding the admin role; the whole step is atomic.
func (s *FriendshipService) Accept(ctx context.Context, callerID, friendshipID int) (models.Friendship, models.ChatRoom, error) {
	friendship, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return models.Friendship{}, models.ChatRoom{}, err
	}
	if friendship.ReceiverID != callerID {
		return models.Friendship{}, models.ChatRoom{}, apperr.Forbidden("only the receiver may respond to a friend request")
	}
	if friendship.Status != models.FriendshipPending {
		return models.Friendship{}, models.ChatRoom{}, apperr.Conflict("friend request was already handled")
	}
	return s.friendships.Accept(ctx, friendshipID)
}

// Decline lets the receiver reject a pending request. No room is
// touched; the pair may retry after the cooldown.
func (s *FriendshipService) Decline(ctx context.Context, callerID, friendshipID int) (models.Friendship, error) {
	friendship, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return models.Friendship{}, err
	}
	if friendship.ReceiverID != callerID {
		return models.Friendship{}, apperr.Forbidden("only the receiver may respond to a friend request")
	}
	if friendship.Status != models.FriendshipPending {
		return models.Friendship{}, apperr.Conflict("friend request was already handled")
	}
	return s.friendships.CompareAndSetStatus(ctx, friendshipID, models.FriendshipPending, models.FriendshipRejected)
}

// Unfriend ends an accepted friendship and soft-deletes its private
// room. Memberships stay untouched; the room simply stops resolving.
// Distinct from Decline even though both end in Rejected.
func (s *FriendshipService) Unfriend(ctx context.Context, callerID, friendshipID int) (models.Friendship, error) {
	friendship, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return models.Friendship{}, err
	}
	if friendship.RequesterID != callerID && friendship.ReceiverID != callerID {
		return models.Friendship{}, apperr.Forbidden("not a party to this friendship")
	}
	if friendship.Status != models.FriendshipAccepted {
		return models.Friendship{}, apperr.Conflict("users are not friends")
	}
	return s.friendships.Unfriend(ctx, friendshipID)
}

// List returns the caller's friend list view.
func (s *FriendshipService) List(ctx context.Context, userID int) ([]models.FriendView, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.friendships.ListForUser(ctx, userID)
}

// SearchNonFriends lists users the caller could still befriend.
func (s *FriendshipService) SearchNonFriends(ctx context.Context, userID int, search string) ([]models.UserSummary, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.SearchNonFriends(ctx, userID, search)
}
