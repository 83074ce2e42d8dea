package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/models"
	"github.com/parley-im/parley/internal/repository"
)

type AttachmentHandler struct {
	attachments repository.AttachmentRepository
	messages    repository.MessageRepository
	memberships repository.MembershipRepository
	maxBytes    int64
	logger      *zap.Logger
}

func NewAttachmentHandler(
	attachments repository.AttachmentRepository,
	messages repository.MessageRepository,
	memberships repository.MembershipRepository,
	maxBytes int64,
	logger *zap.Logger,
) *AttachmentHandler {
	return &AttachmentHandler{
		attachments: attachments,
		messages:    messages,
		memberships: memberships,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

type createAttachmentRequest struct {
	URL  string                `json:"url" binding:"required,url"`
	Type models.AttachmentType `json:"type" binding:"required,oneof=IMAGE VIDEO AUDIO DOCUMENT OTHER"`
	Name *string               `json:"name" binding:"omitempty,max=255"`
	Size *int64                `json:"size" binding:"omitempty,min=0"`
}

// Create handles POST /v1/messages/:messageID/attachments. The file itself
// is stored out of band; this records its metadata against the message.
func (h *AttachmentHandler) Create(c *gin.Context) {
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	var req createAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Size != nil && *req.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attachment exceeds size limit"})
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

	attachment, err := h.attachments.Create(c.Request.Context(), messageID, userID, req.URL, req.Type, req.Name, req.Size)
	if err != nil {
		respondError(c, h.logger, err, "create attachment")
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

// List handles GET /v1/messages/:messageID/attachments.
func (h *AttachmentHandler) List(c *gin.Context) {
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

	attachments, err := h.attachments.ListByMessage(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, h.logger, err, "list attachments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}
