package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/mocks"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []models.Message
}

func (b *recordingBroadcaster) BroadcastMessage(roomID int, msg models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func TestSendEmptyContentRejected(t *testing.T) {
	svc := NewChatService(new(mocks.RoomRepositoryMock), new(mocks.MessageRepositoryMock), nil)

	_, err := svc.Send(context.Background(), 7, 3, "  ")
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestSendNonMemberForbidden(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	rooms.On("GetRoom", mock.Anything, 7).Return(groupRoom(7, 1), nil)
	rooms.On("GetMembership", mock.Anything, 7, 3).Return(models.Membership{}, apperr.NotFound("no membership"))
	svc := NewChatService(rooms, messages, nil)

	_, err := svc.Send(context.Background(), 7, 3, "hi")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendInactiveMemberForbidden(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	rooms.On("GetRoom", mock.Anything, 7).Return(groupRoom(7, 1), nil)
	rooms.On("GetMembership", mock.Anything, 7, 3).
		Return(models.Membership{UserID: 3, RoomID: 7, IsActive: false}, nil)
	svc := NewChatService(rooms, messages, nil)

	_, err := svc.Send(context.Background(), 7, 3, "hi")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendBannedMemberForbidden(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	rooms.On("GetRoom", mock.Anything, 7).Return(groupRoom(7, 1), nil)
	rooms.On("GetMembership", mock.Anything, 7, 3).
		Return(models.Membership{UserID: 3, RoomID: 7, IsActive: false, IsBanned: true}, nil)
	svc := NewChatService(rooms, messages, nil)

	_, err := svc.Send(context.Background(), 7, 3, "hi")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendAppendsThenBroadcasts(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := &recordingBroadcaster{}
	rooms.On("GetRoom", mock.Anything, 7).Return(groupRoom(7, 1), nil)
	rooms.On("GetMembership", mock.Anything, 7, 3).
		Return(models.Membership{UserID: 3, RoomID: 7, IsActive: true}, nil)
	messages.On("Append", mock.Anything, 7, 3, "hi").
		Return(models.Message{ID: 11, RoomID: 7, UserID: 3, Content: "hi"}, nil).Once()
	svc := NewChatService(rooms, messages, broadcaster)

	msg, err := svc.Send(context.Background(), 7, 3, "hi")
	require.NoError(t, err)
	require.Equal(t, 11, msg.ID)
	require.Len(t, broadcaster.messages, 1)
	require.Equal(t, msg, broadcaster.messages[0])
	messages.AssertExpectations(t)
}

func TestSendAppendFailureSkipsBroadcast(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := &recordingBroadcaster{}
	rooms.On("GetRoom", mock.Anything, 7).Return(groupRoom(7, 1), nil)
	rooms.On("GetMembership", mock.Anything, 7, 3).
		Return(models.Membership{UserID: 3, RoomID: 7, IsActive: true}, nil)
	messages.On("Append", mock.Anything, 7, 3, "hi").
		Return(models.Message{}, apperr.Transient(context.DeadlineExceeded)).Once()
	svc := NewChatService(rooms, messages, broadcaster)

	_, err := svc.Send(context.Background(), 7, 3, "hi")
	require.ErrorIs(t, err, apperr.ErrTransient)
	require.Empty(t, broadcaster.messages)
}

func TestHistoryRequiresActiveMember(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	rooms.On("GetRoom", mock.Anything, 7).Return(groupRoom(7, 1), nil)
	rooms.On("GetMembership", mock.Anything, 7, 3).
		Return(models.Membership{UserID: 3, RoomID: 7, IsActive: false}, nil)
	svc := NewChatService(rooms, messages, nil)

	_, err := svc.History(context.Background(), 7, 3)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	messages.AssertNotCalled(t, "ListForRoom", mock.Anything, mock.Anything)
}

func TestHistoryReturnsLog(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	rooms.On("GetRoom", mock.Anything, 7).Return(groupRoom(7, 1), nil)
	rooms.On("GetMembership", mock.Anything, 7, 3).
		Return(models.Membership{UserID: 3, RoomID: 7, IsActive: true}, nil)
	messages.On("ListForRoom", mock.Anything, 7).
		Return([]models.Message{{ID: 1, RoomID: 7}, {ID: 2, RoomID: 7}}, nil).Once()
	svc := NewChatService(rooms, messages, nil)

	log, err := svc.History(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Len(t, log, 2)
	messages.AssertExpectations(t)
}
