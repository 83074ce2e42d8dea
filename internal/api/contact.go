package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/repository"
)

type ContactHandler struct {
	contacts repository.ContactRepository
	logger   *zap.Logger
}

func NewContactHandler(contacts repository.ContactRepository, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, logger: logger}
}

type createContactRequest struct {
	ContactID uuid.UUID `json:"contact_id" binding:"required"`
	Name      *string   `json:"name" binding:"omitempty,min=1,max=50"`
}

// Create handles POST /v1/contacts. A user cannot add themselves; the pair
// and the optional display name are unique per owner.
func (h *ContactHandler) Create(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	if req.ContactID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot add yourself as a contact"})
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), userID, req.ContactID, req.Name)
	if err != nil {
		respondError(c, h.logger, err, "create contact")
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// List handles GET /v1/contacts, newest first.
func (h *ContactHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	contacts, err := h.contacts.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "list contacts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

type renameContactRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

// Rename handles PATCH /v1/contacts/:contactID.
func (h *ContactHandler) Rename(c *gin.Context) {
	contactID, ok := pathUUID(c, "contactID")
	if !ok {
		return
	}

	var req renameContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	contact, err := h.contacts.Rename(c.Request.Context(), userID, contactID, req.Name)
	if err != nil {
		respondError(c, h.logger, err, "rename contact")
		return
	}

	c.JSON(http.StatusOK, contact)
}

// Delete handles DELETE /v1/contacts/:contactID.
func (h *ContactHandler) Delete(c *gin.Context) {
	contactID, ok := pathUUID(c, "contactID")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.contacts.Delete(c.Request.Context(), userID, contactID); err != nil {
		respondError(c, h.logger, err, "delete contact")
		return
	}

	c.Status(http.StatusNoContent)
}
