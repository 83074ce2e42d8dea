package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/repository"
)

type PinHandler struct {
	pins        repository.PinRepository
	messages    repository.MessageRepository
	memberships repository.MembershipRepository
	logger      *zap.Logger
}

func NewPinHandler(
	pins repository.PinRepository,
	messages repository.MessageRepository,
	memberships repository.MembershipRepository,
	logger *zap.Logger,
) *PinHandler {
	return &PinHandler{
		pins:        pins,
		messages:    messages,
		memberships: memberships,
		logger:      logger,
	}
}

type pinRequest struct {
	Note *string `json:"note" binding:"omitempty,max=200"`
}

// Pin handles POST /v1/rooms/:roomID/messages/:messageID/pin. OWNER or ADMIN
// only; a message can be pinned at most once per room.
func (h *PinHandler) Pin(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := liveMessage(c, h.messages, h.logger, messageID)
	if msg == nil {
		return
	}
	if msg.RoomID != roomID {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found in this room"})
		return
	}

	userID := middleware.GetUserID(c)
	m := requireMembership(c, h.memberships, h.logger, userID, roomID)
	if m == nil {
		return
	}
	if !m.Role.CanModerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner or admin role required"})
		return
	}

	pin, err := h.pins.Pin(c.Request.Context(), roomID, messageID, userID, req.Note)
	if err != nil {
		respondError(c, h.logger, err, "pin message")
		return
	}

	c.JSON(http.StatusCreated, pin)
}

// Unpin handles DELETE /v1/rooms/:roomID/messages/:messageID/pin. OWNER or
// ADMIN only; unpinning a message that is not pinned is 404.
func (h *PinHandler) Unpin(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	m := requireMembership(c, h.memberships, h.logger, userID, roomID)
	if m == nil {
		return
	}
	if !m.Role.CanModerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner or admin role required"})
		return
	}

	if err := h.pins.Unpin(c.Request.Context(), roomID, messageID); err != nil {
		respondError(c, h.logger, err, "unpin message")
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /v1/rooms/:roomID/pins, most recently pinned first.
// Member-gated, any role.
func (h *PinHandler) List(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	if requireMembership(c, h.memberships, h.logger, userID, roomID) == nil {
		return
	}

	pins, err := h.pins.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err, "list pins")
		return
	}

	c.JSON(http.StatusOK, gin.H{"pins": pins})
}
