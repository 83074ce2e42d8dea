package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/repository"
)

// PresenceService is what the user handler needs from the presence tracker.
type PresenceService interface {
	SetStatus(ctx context.Context, userID uuid.UUID, status string) error
	Heartbeat(ctx context.Context, userID uuid.UUID) error
	Status(ctx context.Context, userID uuid.UUID) (string, error)
}

type UserHandler struct {
	users    repository.UserRepository
	presence PresenceService
	logger   *zap.Logger
}

func NewUserHandler(users repository.UserRepository, tracker PresenceService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, presence: tracker, logger: logger}
}

// Me handles GET /v1/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Get handles GET /v1/users/:id. Presence comes from the tracker so a fresh
// cache entry wins over a stale database column.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if status, err := h.presence.Status(c.Request.Context(), id); err == nil {
		user.Status = status
	}

	c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=32"`
	Avatar   *string `json:"avatar"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
}

// UpdateProfile handles PATCH /v1/users/me. Absent fields are left untouched.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.Username, req.Avatar, req.Bio)
	if err != nil {
		respondError(c, h.logger, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

type presenceRequest struct {
	Status string `json:"status" binding:"required,oneof=online offline away busy"`
}

// UpdatePresence handles PUT /v1/users/me/presence.
func (h *UserHandler) UpdatePresence(c *gin.Context) {
	var req presenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.presence.SetStatus(c.Request.Context(), userID, req.Status); err != nil {
		respondError(c, h.logger, err, "update presence")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// Heartbeat handles POST /v1/users/me/heartbeat. Clients call this
// periodically while connected to keep their presence entry warm.
func (h *UserHandler) Heartbeat(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.presence.Heartbeat(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err, "heartbeat")
		return
	}
	c.Status(http.StatusNoContent)
}
