package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/mocks"
	"github.com/b10856039/chat-web-app-backend-render/internal/models"
	"github.com/b10856039/chat-web-app-backend-render/internal/services"
)

func setupFriendshipRouter(handler *FriendshipHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/friends", handler.List)
	r.POST("/friends/requests", handler.Request)
	r.POST("/friends/requests/:friendship_id/accept", handler.Accept)
	r.POST("/friends/requests/:friendship_id/decline", handler.Decline)
	r.DELETE("/friends/:friendship_id", handler.Unfriend)
	return r
}

func friendshipHandlerWith(users *mocks.UserRepositoryMock, friendships *mocks.FriendshipRepositoryMock) *FriendshipHandler {
	return NewFriendshipHandler(services.NewFriendshipService(users, friendships), nil)
}

func TestRequestEndpointCreated(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friendships := new(mocks.FriendshipRepositoryMock)
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1}, nil)
	users.On("GetByID", mock.Anything, 2).Return(models.User{ID: 2}, nil)
	friendships.On("GetByPair", mock.Anything, 1, 2).Return(models.Friendship{}, apperr.NotFound("no friendship"))
	friendships.On("Create", mock.Anything, 1, 2).
		Return(models.Friendship{ID: 9, RequesterID: 1, ReceiverID: 2, Status: models.FriendshipPending}, nil).Once()
	router := setupFriendshipRouter(friendshipHandlerWith(users, friendships))

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"user_id":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	friendships.AssertExpectations(t)
}

func TestRequestEndpointDuplicateConflict(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friendships := new(mocks.FriendshipRepositoryMock)
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1}, nil)
	users.On("GetByID", mock.Anything, 2).Return(models.User{ID: 2}, nil)
	friendships.On("GetByPair", mock.Anything, 1, 2).
		Return(models.Friendship{ID: 9, RequesterID: 1, ReceiverID: 2, Status: models.FriendshipPending}, nil)
	router := setupFriendshipRouter(friendshipHandlerWith(users, friendships))

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"user_id":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestEndpointSelfInvalid(t *testing.T) {
	router := setupFriendshipRouter(friendshipHandlerWith(new(mocks.UserRepositoryMock), new(mocks.FriendshipRepositoryMock)))

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"user_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptEndpointRequesterForbidden(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	// Caller (user 1) is the requester on this row, not the receiver.
	friendships.On("GetByID", mock.Anything, 9).
		Return(models.Friendship{ID: 9, RequesterID: 1, ReceiverID: 2, Status: models.FriendshipPending}, nil)
	router := setupFriendshipRouter(friendshipHandlerWith(new(mocks.UserRepositoryMock), friendships))

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/9/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAcceptEndpointReturnsRoom(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	friendships.On("GetByID", mock.Anything, 9).
		Return(models.Friendship{ID: 9, RequesterID: 2, ReceiverID: 1, Status: models.FriendshipPending}, nil)
	friendships.On("Accept", mock.Anything, 9).
		Return(
			models.Friendship{ID: 9, RequesterID: 2, ReceiverID: 1, Status: models.FriendshipAccepted},
			models.ChatRoom{ID: 4, RoomType: models.RoomPrivate, CreatorID: 2},
			nil,
		).Once()
	router := setupFriendshipRouter(friendshipHandlerWith(new(mocks.UserRepositoryMock), friendships))

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/9/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Room models.ChatRoom `json:"room"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 4, resp.Data.Room.ID)
	friendships.AssertExpectations(t)
}

func TestDeclineEndpointAlreadyHandledConflict(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	friendships.On("GetByID", mock.Anything, 9).
		Return(models.Friendship{ID: 9, RequesterID: 2, ReceiverID: 1, Status: models.FriendshipRejected}, nil)
	router := setupFriendshipRouter(friendshipHandlerWith(new(mocks.UserRepositoryMock), friendships))

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/9/decline", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnfriendEndpoint(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	friendships.On("GetByID", mock.Anything, 9).
		Return(models.Friendship{ID: 9, RequesterID: 1, ReceiverID: 2, Status: models.FriendshipAccepted}, nil)
	friendships.On("Unfriend", mock.Anything, 9).
		Return(models.Friendship{ID: 9, RequesterID: 1, ReceiverID: 2, Status: models.FriendshipRejected}, nil).Once()
	router := setupFriendshipRouter(friendshipHandlerWith(new(mocks.UserRepositoryMock), friendships))

	req := httptest.NewRequest(http.MethodDelete, "/friends/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friendships.AssertExpectations(t)
}

func TestListEndpoint(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	friendships := new(mocks.FriendshipRepositoryMock)
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1}, nil)
	friendships.On("ListForUser", mock.Anything, 1).
		Return([]models.FriendView{{FriendshipID: 9, FriendID: 2, Username: "bob", Status: models.FriendshipAccepted}}, nil).Once()
	router := setupFriendshipRouter(friendshipHandlerWith(users, friendships))

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friendships.AssertExpectations(t)
}
