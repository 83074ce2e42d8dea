package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
	"github.com/parley-im/parley/internal/repository"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// respondError maps the shared error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an internal failure: it gets logged and the client
// sees a generic message with the op name.
func respondError(c *gin.Context, logger *zap.Logger, err error, op string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, common.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, common.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
	}
}

// pageParams reads the shared cursor contract: limit defaults to 50, values
// above 100 are clamped rather than rejected, and before is an exclusive
// RFC 3339 timestamp. An unparsable value is ErrInvalidInput.
func pageParams(c *gin.Context) (*time.Time, int, error) {
	limit := defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, 0, common.ErrInvalidInput
		}
		limit = n
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, 0, common.ErrInvalidInput
		}
		before = &t
	}

	return before, limit, nil
}

// pathUUID parses a path parameter as a UUID, writing a 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// liveMessage fetches message metadata and hides soft-deleted rows behind a
// 404. Returns nil after writing the response when the message is unusable.
func liveMessage(c *gin.Context, messages repository.MessageRepository, logger *zap.Logger, messageID uuid.UUID) *models.Message {
	msg, err := messages.GetMeta(c.Request.Context(), messageID)
	if err != nil {
		logger.Error("message lookup failed",
			zap.String("message_id", messageID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message lookup failed"})
		return nil
	}
	if msg == nil || msg.Deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return nil
	}
	return msg
}

// requireMembership resolves the caller's membership in a room, failing
// closed: a missing row and a lookup error both deny access. Returns nil
// after writing the response when the caller may not proceed.
func requireMembership(c *gin.Context, memberships repository.MembershipRepository, logger *zap.Logger, userID, roomID uuid.UUID) *models.Membership {
	m, err := memberships.Get(c.Request.Context(), userID, roomID)
	if err != nil {
		logger.Error("membership lookup failed",
			zap.String("room_id", roomID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return nil
	}
	if m == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
		return nil
	}
	return m
}
