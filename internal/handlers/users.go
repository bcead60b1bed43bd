package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
	"github.com/b10856039/chat-web-app-backend-render/internal/auth"
	"github.com/b10856039/chat-web-app-backend-render/internal/repositories"
	"github.com/b10856039/chat-web-app-backend-render/internal/telemetry"
)

// UserHandler manages account registration and login.
type UserHandler struct {
	users  repositories.UserRepository
	tokens *auth.Tokens
	audit  *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository, tokens *auth.Tokens, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, audit: audit}
}

// Register creates an account and returns a session token.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("%s", err))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 32 {
		respondError(c, apperr.Invalid("username must be 3-32 characters"))
		return
	}
	if len(req.Password) < 8 {
		respondError(c, apperr.Invalid("password must be at least 8 characters"))
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperr.Fatal("hash password: %v", err))
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, req.DisplayName, string(hash))
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			respondError(c, apperr.Conflict("username already taken"))
			return
		}
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, apperr.Fatal("issue token: %v", err))
		return
	}

	h.audit.Emit(c.Request.Context(), "user.registered", "account created", requestIDFromContext(c), user.ID)
	respondData(c, http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login verifies credentials and returns a session token.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("%s", err))
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondErrors(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondErrors(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, apperr.Fatal("issue token: %v", err))
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": user, "token": token})
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"user": user})
}
