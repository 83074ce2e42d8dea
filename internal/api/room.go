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

type RoomHandler struct {
	rooms       repository.RoomRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	logger      *zap.Logger
}

func NewRoomHandler(
	rooms repository.RoomRepository,
	memberships repository.MembershipRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *RoomHandler {
	return &RoomHandler{
		rooms:       rooms,
		memberships: memberships,
		users:       users,
		logger:      logger,
	}
}

type createRoomRequest struct {
	Name        *string         `json:"name" binding:"omitempty,max=100"`
	Description *string         `json:"description" binding:"omitempty,max=500"`
	Type        models.RoomType `json:"type" binding:"required"`
	Avatar      *string         `json:"avatar"`
	MemberIDs   []uuid.UUID     `json:"member_ids"`
}

// Create handles POST /v1/rooms.
//
// The creator always joins as OWNER. PRIVATE rooms take exactly one other
// member and at most one PRIVATE room may exist per user pair; GROUP and
// CHANNEL rooms take any number of initial members, added as MEMBER.
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room type"})
		return
	}

	userID := middleware.GetUserID(c)

	// Dedupe the member list and drop the creator; they are added as OWNER
	// regardless of what the request says.
	seen := map[uuid.UUID]bool{userID: true}
	others := make([]uuid.UUID, 0, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		others = append(others, id)
	}

	if req.Type == models.RoomPrivate {
		if len(others) != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "private rooms require exactly one other member"})
			return
		}
		exists, err := h.rooms.PrivateRoomExists(c.Request.Context(), userID, others[0])
		if err != nil {
			h.logger.Error("private room check failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create room failed"})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "private room already exists for this pair"})
			return
		}
	}

	if len(others) > 0 {
		ok, err := h.users.AllExist(c.Request.Context(), others)
		if err != nil {
			h.logger.Error("member lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create room failed"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "one or more members not found"})
			return
		}
	}

	members := make([]repository.MemberSpec, 0, len(others)+1)
	members = append(members, repository.MemberSpec{UserID: userID, Role: models.RoleOwner})
	for _, id := range others {
		members = append(members, repository.MemberSpec{UserID: id, Role: models.RoleMember})
	}

	// CHANNEL rooms carry no owning user; moderation runs on member roles
	// alone. The creator still joins with the OWNER role above.
	var ownerID *uuid.UUID
	if req.Type != models.RoomChannel {
		ownerID = &userID
	}

	params := repository.CreateRoomParams{
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		Type:        req.Type,
		OwnerID:     ownerID,
		Members:     members,
	}

	room, err := h.rooms.Create(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.logger, err, "create room")
		return
	}

	c.JSON(http.StatusCreated, room)
}

// List handles GET /v1/rooms: the caller's rooms, most recently active first.
func (h *RoomHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	rooms, err := h.rooms.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "list rooms")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// Get handles GET /v1/rooms/:roomID. Non-members get 403, not 404; room
// existence is not hidden once the id is known, membership still gates detail.
func (h *RoomHandler) Get(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if requireMembership(c, h.memberships, h.logger, userID, roomID) == nil {
		return
	}

	room, err := h.rooms.GetByID(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err, "get room")
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, room)
}

type updateRoomRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Avatar      *string `json:"avatar"`
}

// Update handles PATCH /v1/rooms/:roomID. OWNER or ADMIN only.
func (h *RoomHandler) Update(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}

	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	room, err := h.rooms.Update(c.Request.Context(), roomID, req.Name, req.Description, req.Avatar)
	if err != nil {
		respondError(c, h.logger, err, "update room")
		return
	}

	c.JSON(http.StatusOK, room)
}

// Delete handles DELETE /v1/rooms/:roomID. Owner only; CHANNEL rooms have no
// owner and cannot be deleted through this endpoint. Member rows, messages,
// and dependents go with the room via cascade.
func (h *RoomHandler) Delete(c *gin.Context) {
	roomID, ok := pathUUID(c, "roomID")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	room, err := h.rooms.GetByID(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err, "delete room")
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if room.OwnerID == nil || *room.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the room owner can delete it"})
		return
	}

	if err := h.rooms.Delete(c.Request.Context(), roomID); err != nil {
		respondError(c, h.logger, err, "delete room")
		return
	}

	c.Status(http.StatusNoContent)
}
