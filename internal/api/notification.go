package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/models"
	"github.com/parley-im/parley/internal/repository"
)

type NotificationHandler struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewNotificationHandler(notifications repository.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

type createNotificationRequest struct {
	UserID uuid.UUID               `json:"user_id" binding:"required"`
	Type   models.NotificationType `json:"type" binding:"omitempty,oneof=MESSAGE MENTION INVITATION SYSTEM"`
	Title  string                  `json:"title" binding:"required,max=200"`
	Body   string                  `json:"body" binding:"required,max=1000"`
}

// Create handles POST /v1/notifications. Used by internal delivery jobs to
// fan notifications out to users; the type defaults to SYSTEM.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = models.NotifSystem
	}

	n, err := h.notifications.Create(c.Request.Context(), req.UserID, req.Type, req.Title, req.Body)
	if err != nil {
		respondError(c, h.logger, err, "create notification")
		return
	}

	c.JSON(http.StatusCreated, n)
}

// List handles GET /v1/notifications with the shared cursor contract.
func (h *NotificationHandler) List(c *gin.Context) {
	before, limit, err := pageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination parameters"})
		return
	}

	userID := middleware.GetUserID(c)
	notifications, err := h.notifications.List(c.Request.Context(), userID, before, limit)
	if err != nil {
		respondError(c, h.logger, err, "list notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

type setReadRequest struct {
	Read *bool `json:"read" binding:"required"`
}

// SetRead handles PATCH /v1/notifications/:notificationID/read. Owner-scoped;
// anyone else's notification is a 404.
func (h *NotificationHandler) SetRead(c *gin.Context) {
	id, ok := pathUUID(c, "notificationID")
	if !ok {
		return
	}

	var req setReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	n, err := h.notifications.SetRead(c.Request.Context(), userID, id, *req.Read)
	if err != nil {
		respondError(c, h.logger, err, "update notification")
		return
	}

	c.JSON(http.StatusOK, n)
}

// MarkAllRead handles POST /v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err, "mark all read")
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /v1/notifications/:notificationID.
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "notificationID")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.notifications.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err, "delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}
