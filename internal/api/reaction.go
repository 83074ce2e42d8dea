package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/repository"
)

type ReactionHandler struct {
	reactions   repository.ReactionRepository
	messages    repository.MessageRepository
	memberships repository.MembershipRepository
	logger      *zap.Logger
}

func NewReactionHandler(
	reactions repository.ReactionRepository,
	messages repository.MessageRepository,
	memberships repository.MembershipRepository,
	logger *zap.Logger,
) *ReactionHandler {
	return &ReactionHandler{
		reactions:   reactions,
		messages:    messages,
		memberships: memberships,
		logger:      logger,
	}
}

type addReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,max=32"`
}

// Add handles POST /v1/messages/:messageID/reactions. One reaction per
// (message, user, emoji); a duplicate is 409.
func (h *ReactionHandler) Add(c *gin.Context) {
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	var req addReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji must not be empty"})
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

	reaction, err := h.reactions.Add(c.Request.Context(), messageID, userID, emoji)
	if err != nil {
		respondError(c, h.logger, err, "add reaction")
		return
	}

	c.JSON(http.StatusCreated, reaction)
}

// Remove handles DELETE /v1/messages/:messageID/reactions/:emoji. The emoji
// arrives percent-encoded in the path and is decoded before matching.
func (h *ReactionHandler) Remove(c *gin.Context) {
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}

	emoji, err := url.PathUnescape(c.Param("emoji"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emoji encoding"})
		return
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji must not be empty"})
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

	if err := h.reactions.Remove(c.Request.Context(), messageID, userID, emoji); err != nil {
		respondError(c, h.logger, err, "remove reaction")
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /v1/messages/:messageID/reactions, oldest first.
func (h *ReactionHandler) List(c *gin.Context) {
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

	reactions, err := h.reactions.ListByMessage(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, h.logger, err, "list reactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}
