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

type MembershipHandler struct {
	memberships repository.MembershipRepository
	users       repository.UserRepository
	logger      *zap.Logger
}

func NewMembershipHandler(memberships repository.MembershipRepository, users repository.UserRepository, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{memberships: memberships, users: users, logger: logger}
}

type addMemberRequest struct {
	UserID uuid.UUID         `json:"user_id" binding:"required"`
	Role   models.MemberRole `json:"role"`
}

// Add handles POST /v1/rooms/:roomID/members. OWNER or ADMIN only. Adding an
// existing member is a no-op, not an error. OWNER cannot be granted here.
func (h *MembershipHandler) Add(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if req.Role != models.RoleMember && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be MEMBER or ADMIN"})
		return
	}

	actorID := middleware.GetUserID(c)
	m := requireMembership(c, h.memberships, h.logger, actorID, roomID)
	if m == nil {
		return
	}
	if !m.Role.CanModerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner or admin role required"})
		return
	}

	ok, err := h.users.AllExist(c.Request.Context(), []uuid.UUID{req.UserID})
	if err != nil {
		h.logger.Error("member lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add member failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.memberships.AddMember(c.Request.Context(), roomID, req.UserID, req.Role); err != nil {
		respondError(c, h.logger, err, "add member")
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove handles DELETE /v1/rooms/:roomID/members/:userID. Members may leave
// on their own; removing anyone else takes OWNER or ADMIN. Removing a user
// who was never a member succeeds silently.
func (h *MembershipHandler) Remove(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}

	actorID := middleware.GetUserID(c)
	m := requireMembership(c, h.memberships, h.logger, actorID, roomID)
	if m == nil {
		return
	}
	if targetID != actorID && !m.Role.CanModerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner or admin role required"})
		return
	}

	if err := h.memberships.RemoveMember(c.Request.Context(), roomID, targetID); err != nil {
		respondError(c, h.logger, err, "remove member")
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /v1/rooms/:roomID/members. Member-gated.
func (h *MembershipHandler) List(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	if requireMembership(c, h.memberships, h.logger, userID, roomID) == nil {
		return
	}

	members, err := h.memberships.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err, "list members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}
