package services

import (
	"context"
	"errors"
	"strings"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
	"github.com/b10856039/chat-web-app-backend-render/internal/repositories"
)

// RoomService drives the per-(user,room) membership state machine:
// NotMember -> Active -> {Inactive, Banned}, Inactive -> Active,
// Banned terminal.
type RoomService struct {
	users repositories.UserRepository
	rooms repositories.RoomRepository
}

// NewRoomService constructs a RoomService.
func NewRoomService(users repositories.UserRepository, rooms repositories.RoomRepository) *RoomService {
	return &RoomService{users: users, rooms: rooms}
}

// CreateGroup creates a group room owned by creatorID. Private rooms
// cannot be created here; they exist only through friendship
// acceptance.
func (s *RoomService) CreateGroup(ctx context.Context, creatorID int, name string) (models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ChatRoom{}, apperr.Invalid("room name is required")
	}
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return models.ChatRoom{}, err
	}
	return s.rooms.CreateGroupRoom(ctx, creatorID, name)
}

// Get returns a room the caller participates in.
func (s *RoomService) Get(ctx context.Context, roomID, userID int) (models.ChatRoom, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return models.ChatRoom{}, err
	}
	member, err := s.rooms.GetMembership(ctx, roomID, userID)
	if err != nil || !member.CanSend() {
		return models.ChatRoom{}, apperr.Forbidden("not a member of room %d", roomID)
	}
	return room, nil
}

// ListJoined returns rooms where the caller is active.
func (s *RoomService) ListJoined(ctx context.Context, userID int) ([]models.ChatRoom, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.rooms.ListRoomsForUser(ctx, userID)
}

// ListOpen returns group rooms the caller could join.
func (s *RoomService) ListOpen(ctx context.Context, userID int) ([]models.ChatRoom, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.rooms.ListOpenGroupRooms(ctx, userID)
}

// Join adds the user to a group room, or reactivates an earlier
// membership after a leave. Banned users are refused permanently.
func (s *RoomService) Join(ctx context.Context, roomID, userID int) (models.Membership, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return models.Membership{}, err
	}
	if room.RoomType == models.RoomPrivate {
		return models.Membership{}, apperr.Forbidden("private rooms cannot be joined directly")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return models.Membership{}, err
	}

	member, err := s.rooms.GetMembership(ctx, roomID, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return s.rooms.InsertMember(ctx, roomID, userID, models.RoleMember)
	}
	if err != nil {
		return models.Membership{}, err
	}

	switch {
	case member.IsBanned:
		return models.Membership{}, apperr.Forbidden("banned from room %d", roomID)
	case member.IsActive:
		return models.Membership{}, apperr.Conflict("already in room %d", roomID)
	default:
		return s.rooms.ReactivateMember(ctx, roomID, userID)
	}
}

// Leave deactivates the caller's membership. The creator can never
// leave; the only way out for them is deleting the room.
func (s *RoomService) Leave(ctx context.Context, roomID, userID int) (models.Membership, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return models.Membership{}, err
	}
	if room.CreatorID == userID {
		return models.Membership{}, apperr.Forbidden("the creator cannot leave, delete the room instead")
	}
	member, err := s.rooms.DeactivateMember(ctx, roomID, userID)
	if err != nil {
		return models.Membership{}, err
	}
	return member, nil
}

// Kick bans targetID from the room. Requires the requester to hold the
// admin role. The ban is terminal: kicking an already banned member
// reports Conflict and changes nothing.
func (s *RoomService) Kick(ctx context.Context, roomID, requesterID, targetID int) (models.Membership, error) {
	if requesterID == targetID {
		return models.Membership{}, apperr.Invalid("cannot kick yourself")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return models.Membership{}, err
	}
	if room.RoomType == models.RoomPrivate {
		return models.Membership{}, apperr.Forbidden("members cannot be kicked from a private room")
	}

	requester, err := s.rooms.GetMembership(ctx, roomID, requesterID)
	if err != nil {
		return models.Membership{}, err
	}
	if requester.Role != models.RoleAdmin {
		return models.Membership{}, apperr.Forbidden("admin role required to kick")
	}

	target, err := s.rooms.GetMembership(ctx, roomID, targetID)
	if err != nil {
		return models.Membership{}, err
	}
	if target.IsBanned {
		return models.Membership{}, apperr.Conflict("user %d is already banned from room %d", targetID, roomID)
	}
	return s.rooms.BanMember(ctx, roomID, targetID)
}

// Rename updates a room's name. Creator only.
func (s *RoomService) Rename(ctx context.Context, roomID, userID int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Invalid("room name is required")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatorID != userID {
		return apperr.Forbidden("only the creator may update the room")
	}
	return s.rooms.UpdateRoomName(ctx, roomID, name)
}

// Delete soft-deletes a group room. Creator only; private rooms go
// away through unfriending, never through this path.
func (s *RoomService) Delete(ctx context.Context, roomID, userID int) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.RoomType == models.RoomPrivate {
		return apperr.Forbidden("private rooms cannot be deleted directly")
	}
	if room.CreatorID != userID {
		return apperr.Forbidden("only the creator may delete the room")
	}
	return s.rooms.SoftDeleteRoom(ctx, roomID)
}

// Members lists the membership rows of a room the caller belongs to.
func (s *RoomService) Members(ctx context.Context, roomID, userID int) ([]models.Membership, error) {
	if _, err := s.Get(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.rooms.ListMembers(ctx, roomID)
}
