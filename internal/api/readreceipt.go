package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/repository"
)

type ReadReceiptHandler struct {
	receipts    repository.ReadReceiptRepository
	messages    repository.MessageRepository
	memberships repository.MembershipRepository
	logger      *zap.Logger
}

func NewReadReceiptHandler(
	receipts repository.ReadReceiptRepository,
	messages repository.MessageRepository,
	memberships repository.MembershipRepository,
	logger *zap.Logger,
) *ReadReceiptHandler {
	return &ReadReceiptHandler{
		receipts:    receipts,
		messages:    messages,
		memberships: memberships,
		logger:      logger,
	}
}

type markReadRequest struct {
	MessageIDs []uuid.UUID `json:"message_ids" binding:"required,min=1"`
}

// MarkRead handles POST /v1/rooms/:roomID/read. Receipts are idempotent:
// ids already marked are skipped, ids outside the room or soft-deleted are
// ignored, and the member's read cursor only moves forward.
func (h *ReadReceiptHandler) MarkRead(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	if requireMembership(c, h.memberships, h.logger, userID, roomID) == nil {
		return
	}

	if err := h.receipts.MarkRead(c.Request.Context(), roomID, userID, req.MessageIDs); err != nil {
		respondError(c, h.logger, err, "mark read")
		return
	}

	c.Status(http.StatusNoContent)
}

// Readers handles GET /v1/messages/:messageID/readers: who has read a
// message, earliest reader first.
func (h *ReadReceiptHandler) Readers(c *gin.Context) {
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
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

	readers, err := h.receipts.ListReaders(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, h.logger, err, "list readers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"readers": readers})
}

// LastRead handles GET /v1/rooms/:roomID/read: the caller's own read cursor
// in the room.
func (h *ReadReceiptHandler) LastRead(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	m := requireMembership(c, h.memberships, h.logger, userID, roomID)
	if m == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"last_read_at": m.LastReadAt})
}
