package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/models"
	"github.com/parley-im/parley/internal/repository"
)

type MessageHandler struct {
	messages    repository.MessageRepository
	memberships repository.MembershipRepository
	rooms       repository.RoomRepository
	logger      *zap.Logger
}

func NewMessageHandler(
	messages repository.MessageRepository,
	memberships repository.MembershipRepository,
	rooms repository.RoomRepository,
	logger *zap.Logger,
) *MessageHandler {
	return &MessageHandler{
		messages:    messages,
		memberships: memberships,
		rooms:       rooms,
		logger:      logger,
	}
}

type sendMessageRequest struct {
	Body       *string    `json:"body"`
	ReceiverID *uuid.UUID `json:"receiver_id"`
	ReplyToID  *uuid.UUID `json:"reply_to_id"`
}

// Send handles POST /v1/rooms/:roomID/messages. The body is optional (an
// attachment-only message has none); a reply target must be a live message
// in the same room.
func (h *MessageHandler) Send(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Body != nil {
		trimmed := strings.TrimSpace(*req.Body)
		if trimmed == "" {
			req.Body = nil
		} else {
			req.Body = &trimmed
		}
	}

	userID := middleware.GetUserID(c)
	if requireMembership(c, h.memberships, h.logger, userID, roomID) == nil {
		return
	}

	if req.ReplyToID != nil {
		parent := liveMessage(c, h.messages, h.logger, *req.ReplyToID)
		if parent == nil {
			return
		}
		if parent.RoomID != roomID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply target is in another room"})
			return
		}
	}

	msg, err := h.messages.Create(c.Request.Context(), roomID, userID, req.ReceiverID, req.ReplyToID, req.Body)
	if err != nil {
		respondError(c, h.logger, err, "send message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// List handles GET /v1/rooms/:roomID/messages with the shared cursor
// contract: newest first, before is exclusive, limit clamps at 100.
func (h *MessageHandler) List(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	before, limit, err := pageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination parameters"})
		return
	}

	userID := middleware.GetUserID(c)
	if requireMembership(c, h.memberships, h.logger, userID, roomID) == nil {
		return
	}

	msgs, err := h.messages.ListByRoom(c.Request.Context(), roomID, before, limit)
	if err != nil {
		respondError(c, h.logger, err, "list messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type editMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// Edit handles PATCH /v1/messages/:messageID. Sender only; editing marks the
// content edited and stamps the edit time.
func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := liveMessage(c, h.messages, h.logger, messageID)
	if msg == nil {
		return
	}

	userID := middleware.GetUserID(c)
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can edit a message"})
		return
	}

	content, err := h.messages.UpdateContent(c.Request.Context(), messageID, req.Body)
	if err != nil {
		respondError(c, h.logger, err, "edit message")
		return
	}

	c.JSON(http.StatusOK, content)
}

// Delete handles DELETE /v1/messages/:messageID. The sender may always
// delete their own message; the room owner may delete any message in their
// room. Deletion is soft and idempotent at the storage layer, so a repeat
// delete reads as 404.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	msg := liveMessage(c, h.messages, h.logger, messageID)
	if msg == nil {
		return
	}

	userID := middleware.GetUserID(c)
	if msg.SenderID != userID {
		room, err := h.rooms.GetByID(c.Request.Context(), msg.RoomID)
		if err != nil {
			h.logger.Error("room lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete message failed"})
			return
		}
		if room == nil || room.OwnerID == nil || *room.OwnerID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the sender or room owner can delete a message"})
			return
		}
	}

	if err := h.messages.SoftDelete(c.Request.Context(), messageID); err != nil {
		respondError(c, h.logger, err, "delete message")
		return
	}

	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	Status models.MessageStatus `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /v1/messages/:messageID/status. Transitions are
// forward-only; setting the current status again succeeds without change.
func (h *MessageHandler) UpdateStatus(c *gin.Context) {
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	msg := liveMessage(c, h.messages, h.logger, messageID)
	if msg == nil {
		return
	}

	userID := middleware.GetUserID(c)
	if requireMembership(c, h.memberships, h.logger, userID, msg.RoomID) == nil {
		return
	}

	if err := h.messages.UpdateStatus(c.Request.Context(), messageID, req.Status); err != nil {
		respondError(c, h.logger, err, "update message status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}
