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

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestResponseEnvelopeShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ok", func(c *gin.Context) {
		respondData(c, http.StatusOK, gin.H{"value": 7})
	})
	router.GET("/fail", func(c *gin.Context) {
		respondError(c, apperr.NotFound("room not found"))
	})
	router.GET("/denied", func(c *gin.Context) {
		respondErrors(c, http.StatusUnauthorized, "invalid credentials")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.JSONEq(t, `{"value":7}`, string(env.Data))
	require.NotNil(t, env.Errors)
	require.Empty(t, env.Errors)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	env = decodeEnvelope(t, rec)
	require.Equal(t, "null", string(env.Data))
	require.Equal(t, []string{"room not found"}, env.Errors)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/denied", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env = decodeEnvelope(t, rec)
	require.Equal(t, []string{"invalid credentials"}, env.Errors)
}

func TestPostedMessageWrappedInEnvelope(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	rooms.On("GetRoom", mock.Anything, 7).
		Return(models.ChatRoom{ID: 7, RoomType: models.RoomGroup}, nil)
	rooms.On("GetMembership", mock.Anything, 7, 1).
		Return(models.Membership{UserID: 1, RoomID: 7, IsActive: true}, nil)
	messages := new(mocks.MessageRepositoryMock)
	messages.On("Append", mock.Anything, 7, 1, "hi").
		Return(models.Message{ID: 3, RoomID: 7, UserID: 1, Content: "hi"}, nil).Once()
	handler := NewMessageHandler(services.NewChatService(rooms, messages, nil))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/rooms/:room_id/messages", func(c *gin.Context) {
		c.Set("userID", 1)
		handler.Post(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/rooms/7/messages",
		bytes.NewBufferString(`{"content":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data struct {
			Message struct {
				ID      int    `json:"id"`
				Content string `json:"content"`
			} `json:"message"`
		} `json:"data"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "hi", resp.Data.Message.Content)
	require.Empty(t, resp.Errors)
}
