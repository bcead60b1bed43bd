package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/b10856039/chat-web-app-backend-render/internal/models"
	"github.com/b10856039/chat-web-app-backend-render/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, username, displayName, passwordHash string) (models.User, error) {
	args := m.Called(ctx, username, displayName, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SearchNonFriends(ctx context.Context, userID int, search string) ([]models.UserSummary, error) {
	args := m.Called(ctx, userID, search)
	var users []models.UserSummary
	if val := args.Get(0); val != nil {
		users = val.([]models.UserSummary)
	}
	return users, args.Error(1)
}

type FriendshipRepositoryMock struct {
	mock.Mock
}

func (m *FriendshipRepositoryMock) Create(ctx context.Context, requesterID, receiverID int) (models.Friendship, error) {
	args := m.Called(ctx, requesterID, receiverID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) GetByID(ctx context.Context, friendshipID int) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) GetByPair(ctx context.Context, userA, userB int) (models.Friendship, error) {
	args := m.Called(ctx, userA, userB)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.FriendView, error) {
	args := m.Called(ctx, userID)
	var friends []models.FriendView
	if val := args.Get(0); val != nil {
		friends = val.([]models.FriendView)
	}
	return friends, args.Error(1)
}

func (m *FriendshipRepositoryMock) CompareAndSetStatus(ctx context.Context, friendshipID int, from, to models.FriendshipStatus) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID, from, to)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) Accept(ctx context.Context, friendshipID int) (models.Friendship, models.ChatRoom, error) {
	args := m.Called(ctx, friendshipID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	var room models.ChatRoom
	if val := args.Get(1); val != nil {
		room = val.(models.ChatRoom)
	}
	return friendship, room, args.Error(2)
}

func (m *FriendshipRepositoryMock) Unfriend(ctx context.Context, friendshipID int) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) CreateGroupRoom(ctx context.Context, creatorID int, name string) (models.ChatRoom, error) {
	args := m.Called(ctx, creatorID, name)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) UpdateRoomName(ctx context.Context, roomID int, name string) error {
	args := m.Called(ctx, roomID, name)
	return args.Error(0)
}

func (m *RoomRepositoryMock) SoftDeleteRoom(ctx context.Context, roomID int) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID int) ([]models.ChatRoom, error) {
	args := m.Called(ctx, userID)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) ListOpenGroupRooms(ctx context.Context, userID int) ([]models.ChatRoom, error) {
	args := m.Called(ctx, userID)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) GetMembership(ctx context.Context, roomID, userID int) (models.Membership, error) {
	args := m.Called(ctx, roomID, userID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *RoomRepositoryMock) InsertMember(ctx context.Context, roomID, userID int, role models.MemberRole) (models.Membership, error) {
	args := m.Called(ctx, roomID, userID, role)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *RoomRepositoryMock) ReactivateMember(ctx context.Context, roomID, userID int) (models.Membership, error) {
	args := m.Called(ctx, roomID, userID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *RoomRepositoryMock) DeactivateMember(ctx context.Context, roomID, userID int) (models.Membership, error) {
	args := m.Called(ctx, roomID, userID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *RoomRepositoryMock) BanMember(ctx context.Context, roomID, userID int) (models.Membership, error) {
	args := m.Called(ctx, roomID, userID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *RoomRepositoryMock) ListMembers(ctx context.Context, roomID int) ([]models.Membership, error) {
	args := m.Called(ctx, roomID)
	var members []models.Membership
	if val := args.Get(0); val != nil {
		members = val.([]models.Membership)
	}
	return members, args.Error(1)
}

func (m *RoomRepositoryMock) ListActiveRoomIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, roomID, userID int, content string) (models.Message, error) {
	args := m.Called(ctx, roomID, userID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForRoom(ctx context.Context, roomID int) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID, userID int) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

var (
	_ repositories.UserRepository       = (*UserRepositoryMock)(nil)
	_ repositories.FriendshipRepository = (*FriendshipRepositoryMock)(nil)
	_ repositories.RoomRepository       = (*RoomRepositoryMock)(nil)
	_ repositories.MessageRepository    = (*MessageRepositoryMock)(nil)
)
